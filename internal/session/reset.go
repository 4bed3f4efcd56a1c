package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/safar/go-storefront/internal/logger"
)

type Step int

const (
	StepNone Step = iota
	StepAwaitingMobile
	StepAwaitingOTP
	StepAwaitingNewPassword
)

var stepNames = map[Step]string{
	StepNone:                "none",
	StepAwaitingMobile:      "awaiting_mobile",
	StepAwaitingOTP:         "awaiting_otp",
	StepAwaitingNewPassword: "awaiting_new_password",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

func (s Step) MarshalText() ([]byte, error) {
	name, ok := stepNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown reset step %d", int(s))
	}
	return []byte(name), nil
}

func (s *Step) UnmarshalText(text []byte) error {
	for step, name := range stepNames {
		if name == string(text) {
			*s = step
			return nil
		}
	}
	return fmt.Errorf("unknown reset step %q", text)
}

// ResetFlow is the password reset state collected across steps. Err is the
// last failure and is cleared by the next successful step.
type ResetFlow struct {
	Step   Step   `json:"step"`
	Mobile string `json:"mobile,omitempty"`
	OTP    string `json:"otp,omitempty"`
	Err    string `json:"error,omitempty"`
}

func (s *Store) Reset() ResetFlow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reset
}

// BeginPasswordReset starts a new flow, discarding any flow in progress.
func (s *Store) BeginPasswordReset(ctx context.Context) error {
	done := s.begin()
	defer done()

	return s.setReset(ctx, ResetFlow{Step: StepAwaitingMobile})
}

// RequestPasswordReset asks the collaborator to send an OTP to mobile. It is
// accepted again while waiting for the OTP to resend the code.
func (s *Store) RequestPasswordReset(ctx context.Context, mobile string) error {
	done := s.begin()
	defer done()

	flow := s.Reset()
	if flow.Step != StepAwaitingMobile && flow.Step != StepAwaitingOTP {
		return &ResetError{Step: flow.Step, Message: "Password reset has not been started"}
	}

	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return s.failReset(ctx, flow, "Mobile number is required", nil)
	}

	if err := s.auth.ForgotPassword(ctx, mobile); err != nil {
		return s.failReset(ctx, flow, "Failed to send OTP", err)
	}

	next := ResetFlow{Step: StepAwaitingOTP, Mobile: mobile}
	if err := s.setReset(ctx, next); err != nil {
		return err
	}
	logger.Info("password reset otp requested", map[string]any{"mobile": mobile})
	return nil
}

func (s *Store) VerifyOTP(ctx context.Context, otp string) error {
	done := s.begin()
	defer done()

	flow := s.Reset()
	if flow.Step != StepAwaitingOTP {
		return &ResetError{Step: flow.Step, Message: "No OTP has been requested"}
	}

	otp = strings.TrimSpace(otp)
	if otp == "" {
		return s.failReset(ctx, flow, "OTP is required", nil)
	}

	if err := s.auth.VerifyOTP(ctx, flow.Mobile, otp); err != nil {
		return s.failReset(ctx, flow, "Invalid OTP", err)
	}

	next := flow
	next.Step = StepAwaitingNewPassword
	next.OTP = otp
	next.Err = ""
	return s.setReset(ctx, next)
}

// ResetPassword sets the new password and ends the flow on success.
func (s *Store) ResetPassword(ctx context.Context, newPassword string) error {
	done := s.begin()
	defer done()

	flow := s.Reset()
	if flow.Step != StepAwaitingNewPassword {
		return &ResetError{Step: flow.Step, Message: "OTP has not been verified"}
	}

	if len(newPassword) < s.minPasswordLen {
		return s.failReset(ctx, flow, passwordTooShort(s.minPasswordLen), nil)
	}

	if err := s.auth.ResetPassword(ctx, flow.Mobile, flow.OTP, newPassword); err != nil {
		return s.failReset(ctx, flow, "Failed to reset password", err)
	}

	if err := s.setReset(ctx, ResetFlow{}); err != nil {
		return err
	}
	logger.Info("password reset completed", map[string]any{"mobile": flow.Mobile})
	return nil
}

func (s *Store) CancelPasswordReset(ctx context.Context) error {
	done := s.begin()
	defer done()

	return s.setReset(ctx, ResetFlow{})
}

// failReset records msg on the flow without moving it and returns the
// matching ResetError. A collaborator message wins over msg.
func (s *Store) failReset(ctx context.Context, flow ResetFlow, msg string, cause error) error {
	if cause != nil {
		if m := authError(msg, cause).Error(); m != "" {
			msg = m
		}
	}

	flow.Err = msg
	if err := s.setReset(context.WithoutCancel(ctx), flow); err != nil {
		logger.Warn("save reset flow", map[string]any{"error": err.Error()})
	}
	return &ResetError{Step: flow.Step, Message: msg, Err: cause}
}

func (s *Store) setReset(ctx context.Context, flow ResetFlow) error {
	var err error
	if flow.Step == StepNone {
		err = s.resetSlot.Clear(ctx)
	} else {
		err = s.resetSlot.Save(ctx, flow)
	}
	if err != nil {
		return fmt.Errorf("save reset flow: %w", err)
	}

	s.mu.Lock()
	s.reset = flow
	s.mu.Unlock()
	return nil
}
