package errors

import (
	"fmt"
	"testing"
)

func TestAttuneError_Error(t *testing.T) {
	err := &AttuneError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "profile not found",
	}

	expected := "NOT_FOUND: profile not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("profile_id is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "profile_id is required" {
		t.Errorf("Message = %q, want %q", err.Message, "profile_id is required")
	}
}

func TestNewUnknownTheme(t *testing.T) {
	err := NewUnknownTheme("neon")

	if err.Code != ErrUnknownTheme {
		t.Errorf("Code = %q, want %q", err.Code, ErrUnknownTheme)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Details["theme"] != "neon" {
		t.Errorf("Details[theme] = %v, want %q", err.Details["theme"], "neon")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("01HZX")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["profile_id"] != "01HZX" {
		t.Errorf("Details[profile_id] = %v, want %q", err.Details["profile_id"], "01HZX")
	}
}

func TestNewInvalidTransition(t *testing.T) {
	err := NewInvalidTransition("back", "intro")

	if err.Code != ErrInvalidTransition {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidTransition)
	}
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
	if err.Message != "cannot back from step intro" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Details["action"] != "back" || err.Details["step"] != "intro" {
		t.Errorf("Details = %v", err.Details)
	}
}

func TestNewRelayFailed(t *testing.T) {
	err := NewRelayFailed(422, "invalid from address")

	if err.Code != ErrRelayFailed {
		t.Errorf("Code = %q, want %q", err.Code, ErrRelayFailed)
	}
	if err.Status != 502 {
		t.Errorf("Status = %d, want 502", err.Status)
	}
	if err.Details["provider_status"] != 422 {
		t.Errorf("Details[provider_status] = %v, want 422", err.Details["provider_status"])
	}
}

func TestNewInternal(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "with error",
			err:     fmt.Errorf("disk full"),
			wantMsg: "disk full",
		},
		{
			name:    "nil error",
			err:     nil,
			wantMsg: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewInternal(tt.err)
			if err.Code != ErrInternal {
				t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
			}
			if err.Status != 500 {
				t.Errorf("Status = %d, want 500", err.Status)
			}
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
		})
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{
			name: "matching code",
			err:  NewNotFound("x"),
			code: ErrNotFound,
			want: true,
		},
		{
			name: "different code",
			err:  NewNotFound("x"),
			code: ErrInvalidTransition,
			want: false,
		},
		{
			name: "plain error",
			err:  fmt.Errorf("boom"),
			code: ErrInternal,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			code: ErrInternal,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}
