package domain

import "time"

// User es el perfil de una cuenta. FriendCode es el código que la pareja
// ingresa para vincularse; PartnerID queda fijado cuando el vínculo existe.
type User struct {
	ID           string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Picture      *string   `json:"picture,omitempty"`
	FriendCode   string    `json:"friend_code"`
	PartnerID    *string   `json:"partner_id,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Paired indica si la cuenta ya tiene pareja vinculada.
func (u User) Paired() bool {
	return u.PartnerID != nil && *u.PartnerID != ""
}
