package enums

// AuditAction is the label stored on audit log rows. Labels are persisted
// verbatim and consumed by existing reports, so they must not be translated.
type AuditAction string

const (
	AuditActionUserRegistered       AuditAction = "Cadastro de usuário"
	AuditActionUserUpdated          AuditAction = "Atualização de usuário"
	AuditActionUserDeleted          AuditAction = "Usuário removido"
	AuditActionLoginFailed          AuditAction = "Tentativa de login inválida"
	AuditActionLoginSucceeded       AuditAction = "Login bem-sucedido"
	AuditActionPasswordChangeFailed AuditAction = "Tentativa de alteração de senha inválida"
	AuditActionPasswordChanged      AuditAction = "Senha alterada com sucesso"
	AuditActionUserUnblocked        AuditAction = "Usuário desbloqueado"
)

var validAuditActions = []AuditAction{
	AuditActionUserRegistered,
	AuditActionUserUpdated,
	AuditActionUserDeleted,
	AuditActionLoginFailed,
	AuditActionLoginSucceeded,
	AuditActionPasswordChangeFailed,
	AuditActionPasswordChanged,
	AuditActionUserUnblocked,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}
