package ports

type TokenClaims struct {
	SubjectID string
	Role      string
}

type TokenVerifier interface {
	Verify(raw string) (TokenClaims, error)
}
