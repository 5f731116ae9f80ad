package models

import "time"

// OTP is a pending phone verification code.
type OTP struct {
	PhoneNumber string    `bson:"phone_number" json:"phone_number"`
	Code        string    `bson:"code" json:"code"`
	ExpiresAt   time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// OTPRequest starts a phone verification.
type OTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,numeric,min=10,max=11"`
}

// OTPIssued tells the caller which code to text to which receiver.
type OTPIssued struct {
	PhoneNumber string    `json:"phone_number"`
	Code        string    `json:"code"`
	Receiver    string    `json:"receiver"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// OTPVerification reports the verification outcome.
type OTPVerification struct {
	PhoneNumber string `json:"phone_number"`
	Verified    bool   `json:"verified"`
}
