package domain

import (
	"encoding/json"
	"fmt"
)

const (
	RoleCliente       = "cliente"
	RoleTransportador = "transportador"
	RoleAfiliado      = "afiliado"
	RoleAdmin         = "admin"
)

// DefaultRole is used when a request does not name one.
const DefaultRole = RoleCliente

// Roles holds one boolean flag per known role.
type Roles struct {
	Cliente       bool `json:"cliente"`
	Transportador bool `json:"transportador"`
	Afiliado      bool `json:"afiliado"`
	Admin         bool `json:"admin"`
}

// SelfGrantable reports whether role may be set by the user through a login.
// Admin is never self-grantable.
func SelfGrantable(role string) bool {
	switch role {
	case RoleCliente, RoleTransportador, RoleAfiliado:
		return true
	}
	return false
}

// RolesFor returns all-false flags with role set when it is self-grantable.
func RolesFor(role string) Roles {
	var r Roles
	r.Grant(role)
	return r
}

// Grant sets the flag for a self-grantable role and ignores anything else.
func (r *Roles) Grant(role string) {
	switch role {
	case RoleCliente:
		r.Cliente = true
	case RoleTransportador:
		r.Transportador = true
	case RoleAfiliado:
		r.Afiliado = true
	}
}

// Merge ORs other's flags into r.
func (r *Roles) Merge(other Roles) {
	r.Cliente = r.Cliente || other.Cliente
	r.Transportador = r.Transportador || other.Transportador
	r.Afiliado = r.Afiliado || other.Afiliado
	r.Admin = r.Admin || other.Admin
}

// Encode returns the JSON string stored on the profile.
func (r Roles) Encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode roles: %w", err)
	}
	return string(b), nil
}

// DecodeRoles parses a stored roles string. An empty string yields all-false flags.
func DecodeRoles(s string) (Roles, error) {
	var r Roles
	if s == "" {
		return r, nil
	}
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return Roles{}, fmt.Errorf("decode roles: %w", err)
	}
	return r, nil
}
