package mockapi

import (
	"crypto/rand"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/safar/go-storefront/internal/logger"
)

const otpTTL = 10 * time.Minute

type otpEntry struct {
	code      string
	expiresAt time.Time
}

type forgotReq struct {
	Mobile string `json:"mobile" binding:"required"`
}

type verifyOTPReq struct {
	Mobile string `json:"mobile" binding:"required"`
	OTP    string `json:"otp" binding:"required,len=6"`
}

type resetReq struct {
	Mobile      string `json:"mobile" binding:"required"`
	OTP         string `json:"otp" binding:"required,len=6"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func generateOTP6() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	code := 100000 + n.Int64()
	b := []byte("000000")
	for i := 5; i >= 0; i-- {
		b[i] = byte('0' + code%10)
		code /= 10
	}
	return string(b), nil
}

// LastOTP returns the code most recently issued for mobile.
func (s *Server) LastOTP(mobile string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.otps[strings.TrimSpace(mobile)].code
}

func (s *Server) forgotPassword(c *gin.Context) {
	var req forgotReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Please provide a mobile number")
		return
	}
	mobile := strings.TrimSpace(req.Mobile)

	code := s.cfg.FixedOTP
	if code == "" {
		var err error
		if code, err = generateOTP6(); err != nil {
			fail(c, http.StatusInternalServerError, "OTP generation failed")
			return
		}
	}

	s.mu.Lock()
	_, known := s.byMobile[mobile]
	if known {
		s.otps[mobile] = otpEntry{code: code, expiresAt: s.now().Add(otpTTL)}
	}
	s.mu.Unlock()

	if !known {
		fail(c, http.StatusNotFound, "No account found with this mobile number")
		return
	}

	logger.Info("mock otp issued", map[string]any{"mobile": mobile, "otp": code})
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent successfully"})
}

// checkOTP reports whether code is the live OTP for mobile. Callers hold s.mu.
func (s *Server) checkOTP(mobile, code string) bool {
	entry, ok := s.otps[mobile]
	return ok && entry.code == code && s.now().Before(entry.expiresAt)
}

func (s *Server) verifyOTP(c *gin.Context) {
	var req verifyOTPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Please provide mobile and a 6-digit OTP")
		return
	}

	s.mu.Lock()
	ok := s.checkOTP(strings.TrimSpace(req.Mobile), req.OTP)
	s.mu.Unlock()

	if !ok {
		fail(c, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP verified"})
}

func (s *Server) resetPassword(c *gin.Context) {
	var req resetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Please provide mobile, OTP and new password")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		fail(c, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Password hash failed")
		return
	}

	mobile := strings.TrimSpace(req.Mobile)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.checkOTP(mobile, req.OTP) {
		fail(c, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	acc, ok := s.users[s.byMobile[mobile]]
	if !ok {
		fail(c, http.StatusNotFound, "No account found with this mobile number")
		return
	}
	acc.passwordHash = hash
	delete(s.otps, mobile)

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}
