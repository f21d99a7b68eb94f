package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"platinum/internal/auth"
	"platinum/internal/core"
	applog "platinum/internal/log"
	"platinum/internal/refresh"
)

const (
	msgInvalidLogin  = "Usuário ou senha inválidos."
	msgRateLimited   = "Muitas tentativas. Aguarde um minuto e tente novamente."
	msgEmptyTargets  = "Tabela de metas vazia."
	msgRefreshFailed = "Falha ao consultar os dados."
	msgNoData        = "Dados ainda não carregados."
)

type loginView struct {
	Error string
	User  string
}

// dashboardView is the template data of dashboard.html. Cards are empty when
// HasData is false.
type dashboardView struct {
	User     string
	AuthMode string
	CSRF     string
	Backend  string

	HasData bool
	Stale   bool
	Warning string
	Error   string

	DepositCount  string
	DepositValue  string
	PercentOfGoal string

	TodayDeposit    string
	TodayTarget     string
	TodayPercent    string
	TodayPercentBar float64
	TodayDate       string
	UpdatedAt       string
	DroppedRows     int
	CalendarDays    int
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.auth.IsAuthenticated(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.auth.IsAuthenticated(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", loginView{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "login.html", loginView{Error: msgInvalidLogin})
		return
	}
	user := sanitizeInput(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	if _, err := s.auth.Login(r.Context(), w, user, password); err != nil {
		s.render(w, r, http.StatusUnauthorized, "login.html", loginView{Error: msgInvalidLogin, User: user})
		return
	}
	s.limiter.Reset(s.detector.ExtractClientIP(r))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) renderRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Login rate limit exceeded", applog.FieldClientIP, s.detector.ExtractClientIP(r))
	s.render(w, r, http.StatusTooManyRequests, "login.html", loginView{Error: msgRateLimited})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Logout(r.Context(), w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	snap := s.refresh.Load(r.Context(), sess.User, s.now())
	s.render(w, r, http.StatusOK, "dashboard.html", s.buildView(sess, snap))
}

// handleRefresh advances the refresh token so both queries bypass the cache,
// then runs one cycle. The outcome is shown by the dashboard page.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	token := s.refresh.NextToken()
	_, err := s.refresh.Refresh(r.Context(), refresh.Request{Token: token, User: sess.User, Now: s.now()})
	if err != nil && !errors.Is(err, refresh.ErrNoTargets) {
		applog.LogError(r.Context(), "Manual refresh failed", err, applog.ComponentHTTP, applog.OpRefresh,
			applog.NewFields().WithRefresh(token, sess.User))
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	snap := s.refresh.Current()
	if !snap.Valid {
		JSONError(http.StatusServiceUnavailable, msgNoData).Write(w)
		return
	}
	NewResponse().JSON(ChartOption(snap.Dashboard)).Write(w)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	snap := s.refresh.Current()
	if !snap.Valid {
		JSONError(http.StatusServiceUnavailable, msgNoData).Write(w)
		return
	}
	NewResponse().JSON(DailyOption(snap.Dashboard.KPIs)).Write(w)
}

func (s *Server) buildView(sess auth.Session, snap refresh.Snapshot) dashboardView {
	v := dashboardView{
		User:     sess.User,
		AuthMode: s.auth.Mode(),
		CSRF:     sess.CSRF,
		Backend:  s.refresh.Tables().Backend,
		HasData:  snap.Valid,
	}
	switch {
	case errors.Is(snap.Err, refresh.ErrNoTargets):
		v.Warning = msgEmptyTargets
	case snap.Err != nil:
		v.Error = msgRefreshFailed
	}
	v.Stale = snap.Valid && snap.Err != nil
	if !snap.Valid {
		return v
	}

	d := snap.Dashboard
	k := d.KPIs
	v.DepositCount = core.FormatInt(float64(k.TotalDepositCount))
	v.DepositValue = core.FormatCurrency(k.TotalDepositValue)
	v.PercentOfGoal = core.FormatPercent(k.PercentOfGoal)
	v.TodayDeposit = core.FormatCurrency(k.TodayDeposit)
	v.TodayTarget = core.FormatCurrency(k.TodayDailyTarget)
	v.TodayPercent = core.FormatPercent(k.PercentOfDailyTarget)
	v.TodayPercentBar = k.PercentOfDailyTarget
	v.TodayDate = core.FormatDate(k.Today)
	v.UpdatedAt = snap.UpdatedAt.Format("02/01/2006 15:04:05")
	v.DroppedRows = d.DroppedTargetRows + d.DroppedDepositRows
	v.CalendarDays = d.Series.Len()
	return v
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		applog.LogError(r.Context(), "Template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.LogFields{"template": name})
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 {
			return -1
		}
		return r
	}, s)
}
