package request

type RegisterRequest struct {
	Email            string  `json:"email" validate:"required,email,max=254"`
	Password         string  `json:"password" validate:"required,min=8,max=128"`
	FirstName        string  `json:"first_name" validate:"required,max=50"`
	MiddleName       *string `json:"middle_name,omitempty" validate:"omitempty,max=50"`
	LastName         string  `json:"last_name" validate:"required,max=50"`
	IDNumber         string  `json:"id_number" validate:"required,numeric,min=6,max=20"`
	SecurityQuestion string  `json:"security_question" validate:"required,oneof=favorite_color favorite_city childhood_friend"`
	SecurityAnswer   string  `json:"security_answer" validate:"required,max=30"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifySecurityAnswerRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Answer string `json:"answer" validate:"required,max=30"`
}

// SetSecurityAnswerRequest changes the answer and, when Question is set,
// the question it belongs to.
type SetSecurityAnswerRequest struct {
	Question string `json:"question" validate:"omitempty,oneof=favorite_color favorite_city childhood_friend"`
	Answer   string `json:"answer" validate:"required,max=30"`
}
