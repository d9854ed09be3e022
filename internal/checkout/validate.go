package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/validation"
)

const maxNotesLength = 2000

// normalize trims the request and checks everything that does not need the
// catalog: at least one line, every customer field present, positive
// quantities and a known payment method. An empty payment method means cash
// on delivery.
func normalize(req PlaceOrderRequest) (PlaceOrderRequest, error) {
	if len(req.Lines) == 0 {
		return req, &ValidationError{Reason: "order has no items", Fields: []string{"items"}}
	}

	c := &req.Customer
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.City = strings.TrimSpace(c.City)
	req.Notes = strings.TrimSpace(req.Notes)

	var fields []string
	if err := validation.Struct(req.Customer); err != nil {
		var vErrs validation.Errors
		if !errors.As(err, &vErrs) {
			return req, err
		}
		for _, f := range vErrs.Fields() {
			fields = append(fields, "customer."+f)
		}
	}

	lines := make([]LineRequest, len(req.Lines))
	for i, l := range req.Lines {
		l.ProductID = strings.TrimSpace(l.ProductID)
		if l.ProductID == "" {
			fields = append(fields, fmt.Sprintf("items[%d].product_id", i))
		}
		if l.Quantity < 1 {
			fields = append(fields, fmt.Sprintf("items[%d].quantity", i))
		}
		lines[i] = l
	}
	req.Lines = lines

	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCashOnDelivery
	}
	if !req.PaymentMethod.Valid() {
		fields = append(fields, "payment_method")
	}
	if len(req.Notes) > maxNotesLength {
		fields = append(fields, "notes")
	}

	if len(fields) > 0 {
		return req, &ValidationError{Reason: "missing or invalid fields", Fields: fields}
	}
	return req, nil
}
