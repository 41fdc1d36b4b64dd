package e2etest

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// FindForm returns the form posting to formActionURLPath.
func FindForm(doc *goquery.Document, formActionURLPath string) (*goquery.Selection, error) {
	form := doc.Find(fmt.Sprintf("form[action=%q]", formActionURLPath))
	if form.Length() == 0 {
		return nil, fmt.Errorf("form not found: %s", formActionURLPath)
	}
	return form, nil
}

// FindInputForLabel returns the input or textarea labelled with labelText.
func FindInputForLabel(form *goquery.Selection, labelText string) (*goquery.Selection, error) {
	return fieldForLabel(form, labelText, "input", "textarea")
}

// FindSelectForLabel returns the select labelled with labelText.
func FindSelectForLabel(form *goquery.Selection, labelText string) (*goquery.Selection, error) {
	return fieldForLabel(form, labelText, "select")
}

func IsMultipleSelect(selectElement *goquery.Selection) bool {
	_, exists := selectElement.Attr("multiple")
	return exists
}

// fieldForLabel resolves a label either through its for attribute or by the element nested inside it.
func fieldForLabel(form *goquery.Selection, labelText string, elements ...string) (*goquery.Selection, error) {
	label := form.Find(fmt.Sprintf("label:contains(%q)", labelText)).First()
	if label.Length() == 0 {
		return nil, fmt.Errorf("label not found: %s", labelText)
	}

	var field *goquery.Selection
	id, hasFor := label.Attr("for")
	for _, element := range elements {
		if hasFor {
			field = form.Find(fmt.Sprintf("%s[id=%q]", element, id))
		} else {
			field = label.Find(element)
		}
		if field.Length() > 0 {
			return field, nil
		}
	}
	return nil, fmt.Errorf("no %v for label: %s", elements, labelText)
}
