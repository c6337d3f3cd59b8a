package handler

type RegisterRequest struct {
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Superuser       bool   `json:"superuser,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type ChangeEmailRequest struct {
	Email string `json:"email"`
}

type ChangeProfileRequest struct {
	PhoneNumber *string `json:"phone_number,omitempty"`
}

type RequestOTPRequest struct {
	Email string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
