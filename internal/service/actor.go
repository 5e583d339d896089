package service

import (
	"fmt"
	"strconv"
	"strings"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID   uint
	Name string
	Role string
}

// DisplayName is the name copied into audit records.
func (a Actor) DisplayName() string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	return fmt.Sprintf("admin#%d", a.ID)
}

// UserKey is the identifier notifications are addressed to.
func (a Actor) UserKey() string {
	return strconv.FormatUint(uint64(a.ID), 10)
}
