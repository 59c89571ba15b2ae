package main

import (
	"errors"
	"net/http"
	"strconv"

	"shopbe/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

func setupRoutes(r *gin.Engine) {
	user := r.Group("/api/v1/user")
	user.POST("/signup", signupHandler)
	user.POST("/login", loginHandler)
	// Deliberately outside the auth gate: the access token may already be
	// expired when a client comes here, the refresh token carries its own proof.
	user.POST("/refresh-token", refreshTokenHandler)

	authed := user.Group("")
	authed.Use(authMiddleware())
	authed.POST("/logout", logoutHandler)

	admin := authed.Group("")
	admin.Use(adminMiddleware())
	admin.GET("/all", listUsersHandler)
	admin.GET("/:id", getUserHandler)
	admin.DELETE("/:id", deleteUserHandler)

	setupProductRoutes(r)
}

// authMiddleware reads the access-token cookie, verifies it and attaches the
// user to the request context. Any failure is a plain 401; the client never
// learns whether the token was missing, malformed or expired.
func authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(accessCookieName)
		if err != nil || tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized - No access token provided"})
			c.Abort()
			return
		}
		userID, err := verifyToken(tokenString, accessSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized - Invalid token"})
			c.Abort()
			return
		}
		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized - User not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
			}
			c.Abort()
			return
		}
		c.Set("user", &user)
		c.Set("userID", userID)
		c.Next()
	}
}

// adminMiddleware must run after authMiddleware.
func adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok || user.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied - Admin only"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get("user")
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

func setAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	secure := isProduction()
	c.SetCookie(accessCookieName, accessToken, int(accessTokenTTL.Seconds()), "/", "", secure, true)
	c.SetCookie(refreshCookieName, refreshToken, int(refreshTokenTTL.Seconds()), "/", "", secure, true)
}

func setAccessCookie(c *gin.Context, accessToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessCookieName, accessToken, int(accessTokenTTL.Seconds()), "/", "", isProduction(), true)
}

func clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	secure := isProduction()
	c.SetCookie(accessCookieName, "", -1, "/", "", secure, true)
	c.SetCookie(refreshCookieName, "", -1, "/", "", secure, true)
}

func signupHandler(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "All fields are required"})
		return
	}
	user, err := RegisterUser(req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": err.Error()})
		case errors.Is(err, ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "registration failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "user registered successfully", "user": user})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "All fields are required"})
		return
	}
	user, err := Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": ErrInvalidCredentials.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "login failed"})
		return
	}
	accessToken, refreshToken, err := sessions.Issue(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "login failed"})
		return
	}
	setAuthCookies(c, accessToken, refreshToken)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "login successful", "user": user})
}

// logoutHandler deletes the registry entry for the authenticated user. The
// refresh cookie only needs to be present; its contents are never verified,
// deletion is keyed by the access token's subject.
func logoutHandler(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized - No access token provided"})
		return
	}
	if _, err := c.Cookie(refreshCookieName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "no refresh token provided"})
		return
	}
	if err := sessions.Revoke(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "logout failed"})
		return
	}
	clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out successfully"})
}

func refreshTokenHandler(c *gin.Context) {
	presented, err := c.Cookie(refreshCookieName)
	if err != nil || presented == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "no refresh token provided"})
		return
	}
	_, accessToken, err := sessions.Refresh(c.Request.Context(), presented)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired refresh token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "token refresh failed"})
		return
	}
	setAccessCookie(c, accessToken)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "access token refreshed"})
}

func listUsersHandler(c *gin.Context) {
	var users []models.User
	if err := db.Order("id").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

func getUserHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "user not found"})
		return
	}
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "user not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func deleteUserHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "user not found"})
		return
	}
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "user not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "query failed"})
		}
		return
	}
	if err := db.Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "delete failed"})
		return
	}
	// drop any live session so the deleted account cannot refresh
	_ = sessions.Revoke(c.Request.Context(), user.ID)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "user deleted"})
}
