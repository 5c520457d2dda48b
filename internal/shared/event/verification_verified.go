package event

const VerificationVerifiedDestination string = "verification.verified"

type VerificationVerifiedMessage struct {
	Email      string `json:"email"`
	Purpose    string `json:"purpose"`
	VerifiedAt int64  `json:"verified_at"`
}
