package meta

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/lidarlab/e57/errs"
)

// typedChild finds the child element with the given tag and verifies its
// "type" attribute.
func typedChild(parent *etree.Element, tag, expectedType string) (*etree.Element, error) {
	el := parent.SelectElement(tag)
	if el == nil {
		return nil, nil
	}

	foundType := el.SelectAttrValue("type", "")
	if foundType == "" {
		return nil, fmt.Errorf("%w: element '%s' has no 'type' attribute", errs.ErrInvalid, tag)
	}
	if foundType != expectedType {
		return nil, fmt.Errorf("%w: element '%s' has type '%s' instead of '%s'",
			errs.ErrInvalid, tag, foundType, expectedType)
	}

	return el, nil
}

func optionalString(parent *etree.Element, tag string) (string, bool, error) {
	el, err := typedChild(parent, tag, "String")
	if err != nil || el == nil {
		return "", false, err
	}

	return el.Text(), true, nil
}

func requiredString(parent *etree.Element, tag string) (string, error) {
	s, ok, err := optionalString(parent, tag)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: element '%s' was not found", errs.ErrInvalid, tag)
	}

	return s, nil
}

func optionalFloat(parent *etree.Element, tag string) (*float64, error) {
	el, err := typedChild(parent, tag, "Float")
	if err != nil || el == nil {
		return nil, err
	}

	text := el.Text()
	if text == "" {
		text = "0"
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse value '%s' of element '%s' as Float",
			errs.ErrInvalid, text, tag)
	}

	return &v, nil
}

func requiredFloat(parent *etree.Element, tag string) (float64, error) {
	v, err := optionalFloat(parent, tag)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, fmt.Errorf("%w: element '%s' was not found", errs.ErrInvalid, tag)
	}

	return *v, nil
}

func optionalInteger(parent *etree.Element, tag string) (*int64, error) {
	el, err := typedChild(parent, tag, "Integer")
	if err != nil || el == nil {
		return nil, err
	}

	text := el.Text()
	if text == "" {
		text = "0"
	}

	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse value '%s' of element '%s' as Integer",
			errs.ErrInvalid, text, tag)
	}

	return &v, nil
}

func requiredInteger(parent *etree.Element, tag string) (int64, error) {
	v, err := optionalInteger(parent, tag)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, fmt.Errorf("%w: element '%s' was not found", errs.ErrInvalid, tag)
	}

	return *v, nil
}

// uintAttribute parses a required non-negative integer attribute.
func uintAttribute(el *etree.Element, name string) (uint64, error) {
	attr := el.SelectAttr(name)
	if attr == nil {
		return 0, fmt.Errorf("%w: cannot find '%s' attribute in element '%s'", errs.ErrInvalid, name, el.Tag)
	}

	v, err := strconv.ParseUint(attr.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: cannot parse attribute '%s' value '%s'", errs.ErrInvalid, name, attr.Value)
	}

	return v, nil
}

func intAttribute(el *etree.Element, name string) (int64, bool, error) {
	attr := el.SelectAttr(name)
	if attr == nil {
		return 0, false, nil
	}

	v, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: cannot parse attribute '%s' value '%s'", errs.ErrInvalid, name, attr.Value)
	}

	return v, true, nil
}

func floatAttribute(el *etree.Element, name string) (float64, bool, error) {
	attr := el.SelectAttr(name)
	if attr == nil {
		return 0, false, nil
	}

	v, err := strconv.ParseFloat(attr.Value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: cannot parse attribute '%s' value '%s'", errs.ErrInvalid, name, attr.Value)
	}

	return v, true, nil
}
