package constants

const (
	IDRandomBytes = 12

	PasswordMinLength        = 7
	PasswordForbiddenSubword = "password"
	PasswordMaxBytes         = 72 // bcrypt input limit
	NameMaxLength            = 128
	EmailMaxLength           = 254
	DescriptionMaxLength     = 2000

	AvatarMaxUploadBytes = 1_000_000
	AvatarEdge           = 250
)
