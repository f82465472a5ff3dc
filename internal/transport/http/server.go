package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"quiz-api/internal/app"
	"quiz-api/internal/domain"
	"quiz-api/internal/metrics"
)

// Server exposes the auth and quiz use cases over JSON/HTTP.
type Server struct {
	auth           *app.AuthService
	quizzes        *app.QuizService
	metrics        *metrics.Metrics
	log            *slog.Logger
	allowedOrigins []string
}

// NewServer builds the API. allowedOrigins feeds the CORS policy; "*" allows
// any origin.
func NewServer(auth *app.AuthService, quizzes *app.QuizService, m *metrics.Metrics, log *slog.Logger, allowedOrigins []string) *Server {
	return &Server{auth: auth, quizzes: quizzes, metrics: m, log: log, allowedOrigins: allowedOrigins}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.With(s.requireAuth).Get("/me", s.handleGetMe)
	})

	r.Route("/api/quizzes", func(r chi.Router) {
		// Listing is public; reading a single quiz (answers included) is not.
		r.Get("/", s.handleListQuizzes)
		r.With(s.requireAuth).Post("/", s.handleCreateQuiz)
		r.With(s.requireAuth).Get("/{id}", s.handleGetQuiz)
		r.With(s.requireAuth).Post("/{id}/questions", s.handleAddQuestion)
		r.With(s.requireAuth).Post("/{id}/submit", s.handleSubmit)
	})

	return r
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	token, err := s.auth.RegisterAndIssue(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Token: token})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	current, _ := userFromContext(r.Context())
	user, err := s.auth.Me(r.Context(), current.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: user})
}

func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := s.quizzes.ListQuizzes(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Count: intPtr(len(quizzes)), Data: quizzes})
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := s.quizzes.GetQuiz(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: quiz})
}

// createQuizRequest has no creator field; any createdBy sent by the client
// is ignored in favour of the authenticated user.
type createQuizRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Questions   []questionRequest `json:"questions"`
}

type questionRequest struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req createQuizRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	questions := make([]domain.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, domain.Question{
			QuestionText:  q.QuestionText,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		})
	}

	quiz, err := s.quizzes.CreateQuiz(r.Context(), user.ID, req.Title, req.Description, questions)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: quiz})
}

func (s *Server) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req questionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid question data. Need questionText, options (array, min 2), and correctAnswer.")
		return
	}
	quiz, err := s.quizzes.AddQuestion(r.Context(), chi.URLParam(r, "id"), user.ID, req.QuestionText, req.Options, req.CorrectAnswer)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: quiz})
}

type submitRequest struct {
	Answers []answerRequest `json:"answers"`
}

// answerRequest keeps questionIndex as a pointer so a missing or null index
// is not read as question 0.
type answerRequest struct {
	QuestionIndex  *int   `json:"questionIndex"`
	SelectedAnswer string `json:"selectedAnswer"`
}

// missingIndex is out of range for every quiz, so Score skips it.
const missingIndex = -1

func (req submitRequest) answers() []domain.Answer {
	answers := make([]domain.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		idx := missingIndex
		if a.QuestionIndex != nil {
			idx = *a.QuestionIndex
		}
		answers = append(answers, domain.Answer{QuestionIndex: idx, SelectedAnswer: a.SelectedAnswer})
	}
	return answers
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req submitRequest
	if err := decodeJSON(r, &req); err != nil || req.Answers == nil {
		writeError(w, http.StatusBadRequest, "Invalid submission format.")
		return
	}
	result, err := s.quizzes.Submit(r.Context(), chi.URLParam(r, "id"), user.ID, req.answers())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.metrics.SubmissionScored()
	writeJSON(w, http.StatusOK, envelope{
		Success:        true,
		Message:        "Quiz submitted successfully.",
		Score:          intPtr(result.Score),
		TotalQuestions: intPtr(result.TotalQuestions),
	})
}
