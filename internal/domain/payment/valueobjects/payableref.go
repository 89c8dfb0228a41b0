package valueobjects

import (
	"fmt"
	"strings"
)

// PayableRef is a weak reference to the host billing object a payment settles.
// The payment never loads or owns the referenced object.
type PayableRef struct {
	typ string
	id  string
}

func NewPayableRef(payableType, payableID string) (PayableRef, error) {
	payableType = strings.TrimSpace(payableType)
	payableID = strings.TrimSpace(payableID)
	if payableType == "" {
		return PayableRef{}, fmt.Errorf("payable type is required")
	}
	if payableID == "" {
		return PayableRef{}, fmt.Errorf("payable id is required")
	}
	return PayableRef{typ: payableType, id: payableID}, nil
}

func (r PayableRef) Type() string {
	return r.typ
}

func (r PayableRef) ID() string {
	return r.id
}

func (r PayableRef) IsZero() bool {
	return r.typ == "" && r.id == ""
}

func (r PayableRef) String() string {
	return r.typ + ":" + r.id
}
