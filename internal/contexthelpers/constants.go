package contexthelpers

type contextKey string

const CurrentPathContextKey = contextKey("currentPath")
const CspNonceContextKey = contextKey("cspNonce")
const RequestIDContextKey = contextKey("requestID")
