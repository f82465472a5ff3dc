package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-api/internal/app"
	"quiz-api/internal/domain"
)

// CachedQuizRepository is a read-through cache in front of another
// app.QuizRepository. Single quizzes are cached as JSON under quiz:{id};
// the list is always read from the backing store.
// Redis failures degrade to the backing store, they never fail a request.
type CachedQuizRepository struct {
	next   app.QuizRepository
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewCachedQuizRepository(next app.QuizRepository, client *redis.Client, ttl time.Duration, log *slog.Logger) *CachedQuizRepository {
	return &CachedQuizRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		log:    log,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CachedQuizRepository) Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	return r.next.Create(ctx, quiz)
}

func (r *CachedQuizRepository) FindAll(ctx context.Context) ([]domain.Quiz, error) {
	return r.next.FindAll(ctx)
}

func (r *CachedQuizRepository) FindByID(ctx context.Context, id string) (domain.Quiz, error) {
	if quiz, ok := r.cached(ctx, id); ok {
		return quiz, nil
	}

	// The load is shared by every caller waiting on id, so one caller's
	// cancellation must not fail the rest.
	loadCtx := context.WithoutCancel(ctx)
	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if quiz, ok := r.cached(loadCtx, id); ok {
			return quiz, nil
		}
		quiz, err := r.next.FindByID(loadCtx, id)
		if err != nil {
			return domain.Quiz{}, err
		}
		r.store(loadCtx, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// AppendQuestion writes through to the backing store and drops the cached copy.
func (r *CachedQuizRepository) AppendQuestion(ctx context.Context, quizID string, question domain.Question) (domain.Quiz, error) {
	quiz, err := r.next.AppendQuestion(ctx, quizID, question)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := r.client.Del(ctx, r.key(quizID)).Err(); err != nil {
		r.log.WarnContext(ctx, "quiz cache invalidation failed", "quiz_id", quizID, "error", err)
	}
	return quiz, nil
}

func (r *CachedQuizRepository) cached(ctx context.Context, id string) (domain.Quiz, bool) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.WarnContext(ctx, "quiz cache read failed", "quiz_id", id, "error", err)
		}
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		r.log.WarnContext(ctx, "quiz cache entry corrupt", "quiz_id", id, "error", err)
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *CachedQuizRepository) store(ctx context.Context, quiz domain.Quiz) {
	raw, err := json.Marshal(quiz)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, r.key(quiz.ID), raw, r.ttlWithJitter()).Err(); err != nil {
		r.log.WarnContext(ctx, "quiz cache write failed", "quiz_id", quiz.ID, "error", err)
	}
}

func (r *CachedQuizRepository) key(quizID string) string {
	return "quiz:" + quizID
}

func (r *CachedQuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
