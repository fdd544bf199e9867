package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"guild-tracker/internal/api"
	"guild-tracker/internal/auth"
	"guild-tracker/internal/domain"
	"guild-tracker/internal/middleware"
	"guild-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Server struct {
	importSvc  *service.ImportService
	historySvc *service.HistoryService
	rosterSvc  *service.RosterService
	authSvc    *auth.Service
	logger     zerolog.Logger
}

func New(importSvc *service.ImportService, historySvc *service.HistoryService, rosterSvc *service.RosterService, authSvc *auth.Service, logger zerolog.Logger) *Server {
	return &Server{
		importSvc:  importSvc,
		historySvc: historySvc,
		rosterSvc:  rosterSvc,
		authSvc:    authSvc,
		logger:     logger,
	}
}

// Router wires the HTTP surface. Import and rename are restricted to the
// admin roles; everything else is public.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(s.logger))

	r.GET("/health", s.health)
	r.POST("/auth/login", s.login)
	r.GET("/auth/me", middleware.RequireAuth(s.authSvc), s.me)

	family := r.Group("/family/:family")
	{
		family.GET("/latest", s.latest)
		family.GET("/snapshots", s.snapshots)
		family.GET("/history", s.history)
		family.GET("/player/by-nickname/:nickname", s.playerByNickname)

		admin := family.Group("")
		admin.Use(middleware.RequireAuth(s.authSvc), middleware.RequireRoles(auth.RoleAdmin, auth.RoleSuperadmin))
		{
			admin.POST("/import", s.importFamily)
			admin.POST("/import/remote", s.importRemote)
			admin.PATCH("/player/:player_id/nickname", s.rename)
		}
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := s.authSvc.Authenticate(username, password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Bad credentials"})
		return
	}

	token, err := s.authSvc.IssueToken(user)
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("failed to issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"role":         user.Role,
		"username":     user.Username,
	})
}

func (s *Server) me(c *gin.Context) {
	claims := middleware.Claims(c)
	c.JSON(http.StatusOK, gin.H{"username": claims.Subject, "role": claims.Role})
}

func (s *Server) importFamily(c *gin.Context) {
	family := c.Param("family")

	rosterPayload, err := formFileText(c, "gmbr")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "gmbr file is required"})
		return
	}
	pointsPayload, err := formFileText(c, "gexp")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "gexp file is required"})
		return
	}

	snapshotDate, ok := optionalDateQuery(c, "snapshot_date")
	if !ok {
		return
	}

	summary, err := s.importSvc.Import(c.Request.Context(), family, rosterPayload, pointsPayload, snapshotDate)
	if err != nil {
		s.logger.Error().Err(err).Str("family", family).Msg("import failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Import failed"})
		return
	}

	c.JSON(http.StatusOK, toImportResponse(summary))
}

func (s *Server) importRemote(c *gin.Context) {
	family := c.Param("family")

	snapshotDate, ok := optionalDateQuery(c, "snapshot_date")
	if !ok {
		return
	}

	summary, err := s.importSvc.ImportFromRemote(c.Request.Context(), family, snapshotDate)
	if errors.Is(err, api.ErrRemoteImportDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Remote import is not configured"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("family", family).Msg("remote import failed")
		c.JSON(http.StatusBadGateway, gin.H{"detail": "Remote import failed"})
		return
	}

	c.JSON(http.StatusOK, toImportResponse(summary))
}

func (s *Server) latest(c *gin.Context) {
	entries, err := s.rosterSvc.Latest(c.Request.Context(), c.Param("family"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	resp := make([]leaderboardEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toLeaderboardEntry(e))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) snapshots(c *gin.Context) {
	dates, err := s.rosterSvc.SnapshotDates(c.Request.Context(), c.Param("family"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, formatDates(dates))
}

func (s *Server) history(c *gin.Context) {
	from, to, ok := dateRangeQuery(c)
	if !ok {
		return
	}

	history, err := s.historySvc.FamilyHistory(c.Request.Context(), c.Param("family"), from, to)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toFamilyHistoryResponse(history))
}

func (s *Server) playerByNickname(c *gin.Context) {
	from, to, ok := dateRangeQuery(c)
	if !ok {
		return
	}

	history, err := s.historySvc.PlayerHistory(c.Request.Context(), c.Param("family"), c.Param("nickname"), from, to)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPlayerHistoryResponse(history))
}

type renameRequest struct {
	Nickname string `json:"nickname" binding:"required"`
}

func (s *Server) rename(c *gin.Context) {
	playerID, err := strconv.ParseInt(c.Param("player_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid player id"})
		return
	}

	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Nickname is required"})
		return
	}

	member, err := s.rosterSvc.Rename(c.Request.Context(), c.Param("family"), playerID, req.Nickname)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, memberResponse{
		PlayerID: member.PlayerID,
		Nickname: member.Nickname,
		Level:    member.Level,
		ClassID:  member.ClassID,
		Family:   member.Family,
	})
}

func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrPlayerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Player not found"})
	case errors.Is(err, domain.ErrNicknameTaken):
		c.JSON(http.StatusConflict, gin.H{"detail": "Nickname already used in this family"})
	case errors.Is(err, domain.ErrInvalidNickname):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	default:
		s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal error"})
	}
}

func formFileText(c *gin.Context, name string) (string, error) {
	file, err := c.FormFile(name)
	if err != nil {
		return "", err
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// optionalDateQuery parses a YYYY-MM-DD query param when present; the
// second return is false after it has already written a 400.
func optionalDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}

	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid " + name + ", expected YYYY-MM-DD"})
		return nil, false
	}
	return &date, true
}

func dateRangeQuery(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse(time.DateOnly, c.Query("from_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid from_date, expected YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.DateOnly, c.Query("to_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid to_date, expected YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
