package mockapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/models"
)

const minPasswordLength = 6

type account struct {
	user         models.User
	passwordHash string
}

type registerReq struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Mobile   string `json:"mobile" binding:"required"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileReq struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Mobile *string `json:"mobile"`
}

func hashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(b), err
}

func checkPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Server) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Please provide name, a valid email, password and mobile")
		return
	}
	if len(req.Password) < minPasswordLength {
		fail(c, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	email := normalizeEmail(req.Email)
	mobile := strings.TrimSpace(req.Mobile)

	hash, err := hashPassword(req.Password)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Password hash failed")
		return
	}

	s.mu.Lock()
	if _, taken := s.byEmail[email]; taken {
		s.mu.Unlock()
		fail(c, http.StatusConflict, "User already exists")
		return
	}
	if _, taken := s.byMobile[mobile]; taken {
		s.mu.Unlock()
		fail(c, http.StatusConflict, "Mobile number already registered")
		return
	}
	acc := &account{
		user: models.User{
			ID:        uuid.NewString(),
			Name:      strings.TrimSpace(req.Name),
			Email:     email,
			Mobile:    mobile,
			Role:      "customer",
			CreatedAt: s.now().UTC(),
		},
		passwordHash: hash,
	}
	s.users[acc.user.ID] = acc
	s.byEmail[email] = acc.user.ID
	s.byMobile[mobile] = acc.user.ID
	s.mu.Unlock()

	token, err := s.tokens.sign(acc.user.ID, s.now())
	if err != nil {
		fail(c, http.StatusInternalServerError, "Token signing failed")
		return
	}

	logger.Info("mock user registered", map[string]any{"user_id": acc.user.ID})
	c.JSON(http.StatusCreated, models.AuthResult{Token: token, User: &acc.user})
}

func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Please provide email and password")
		return
	}

	s.mu.Lock()
	acc, ok := s.users[s.byEmail[normalizeEmail(req.Email)]]
	var user models.User
	var hash string
	if ok {
		user, hash = acc.user, acc.passwordHash
	}
	s.mu.Unlock()

	if !ok || !checkPassword(hash, req.Password) {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.tokens.sign(user.ID, s.now())
	if err != nil {
		fail(c, http.StatusInternalServerError, "Token signing failed")
		return
	}
	c.JSON(http.StatusOK, models.AuthResult{Token: token, User: &user})
}

func (s *Server) logout(c *gin.Context) {
	exp, _ := c.Get(ctxTokenExpKey)
	expiry, ok := exp.(time.Time)
	if !ok {
		expiry = s.now().Add(s.cfg.TokenTTL)
	}
	s.tokens.revoke(c.GetString(ctxTokenIDKey), expiry, s.now())
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) profile(c *gin.Context) {
	s.mu.Lock()
	user := s.users[c.GetString(ctxUserIDKey)].user
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) updateProfile(c *gin.Context) {
	var req profileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.users[c.GetString(ctxUserIDKey)]
	email, mobile := acc.user.Email, acc.user.Mobile
	if req.Email != nil {
		email = normalizeEmail(*req.Email)
		if !strings.Contains(email, "@") {
			fail(c, http.StatusBadRequest, "Please provide a valid email")
			return
		}
		if owner, taken := s.byEmail[email]; taken && owner != acc.user.ID {
			fail(c, http.StatusConflict, "Email already in use")
			return
		}
	}
	if req.Mobile != nil {
		mobile = strings.TrimSpace(*req.Mobile)
		if owner, taken := s.byMobile[mobile]; taken && owner != acc.user.ID {
			fail(c, http.StatusConflict, "Mobile number already in use")
			return
		}
	}

	delete(s.byEmail, acc.user.Email)
	delete(s.byMobile, acc.user.Mobile)
	acc.user.Email, acc.user.Mobile = email, mobile
	s.byEmail[email] = acc.user.ID
	s.byMobile[mobile] = acc.user.ID
	if req.Name != nil {
		acc.user.Name = strings.TrimSpace(*req.Name)
	}

	c.JSON(http.StatusOK, gin.H{"user": acc.user})
}
