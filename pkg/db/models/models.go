package models

// All lists every persisted model, in dependency order, for schema bootstrapping
// in tests and sqlite-backed dev environments.
func All() []any {
	return []any{
		&User{},
		&Store{},
		&Part{},
		&Order{},
		&OrderItem{},
		&AuditLog{},
	}
}
