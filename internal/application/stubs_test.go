package application

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// plainHasher keeps tests fast by skipping key derivation.
func plainHasher(password string) (string, error) { return "plain:" + password, nil }

func plainVerifier(hash, password string) error {
	if hash == "plain:"+password {
		return nil
	}
	return ErrInvalidCredentials
}

func fixedClock(now time.Time) func() time.Time { return func() time.Time { return now } }

func tokenSequence(tokens ...string) func() string {
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(tokens) == 0 {
			return "fallback"
		}
		token := tokens[0]
		tokens = tokens[1:]
		return token
	}
}

type userStoreStub struct {
	mu          sync.Mutex
	nextID      int64
	users       map[int64]UserCredentials
	lastLogins  map[int64]time.Time
	existsErr   error
	createErr   error
	lookupErr   error
	updateCalls int
}

func newUserStoreStub() *userStoreStub {
	return &userStoreStub{users: map[int64]UserCredentials{}, lastLogins: map[int64]time.Time{}}
}

func (s *userStoreStub) seed(user User, hash string) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = UserCredentials{User: user, PasswordHash: hash}
	return user
}

func (s *userStoreStub) CreateUser(_ context.Context, user User, passwordHash string) (User, error) {
	if s.createErr != nil {
		return User{}, s.createErr
	}
	return s.seed(user, passwordHash), nil
}

func (s *userStoreStub) GetUser(_ context.Context, id int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return creds.User, nil
}

func (s *userStoreStub) find(match func(User) bool) (UserCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return UserCredentials{}, s.lookupErr
	}
	for _, creds := range s.users {
		if match(creds.User) {
			return creds, nil
		}
	}
	return UserCredentials{}, ErrNotFound
}

func (s *userStoreStub) GetCredentialsByUsername(_ context.Context, username string) (UserCredentials, error) {
	return s.find(func(u User) bool { return u.Username == username })
}

func (s *userStoreStub) GetCredentialsByEmail(_ context.Context, email string) (UserCredentials, error) {
	return s.find(func(u User) bool { return u.Email == email })
}

func (s *userStoreStub) UsernameExists(ctx context.Context, username string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, err := s.GetCredentialsByUsername(ctx, username)
	return err == nil, nil
}

func (s *userStoreStub) EmailExists(ctx context.Context, email string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, err := s.GetCredentialsByEmail(ctx, email)
	return err == nil, nil
}

func (s *userStoreStub) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	s.updateCalls++
	s.lastLogins[id] = at
	creds.User.LastLogin = &at
	s.users[id] = creds
	return nil
}

func (s *userStoreStub) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	creds.PasswordHash = passwordHash
	s.users[id] = creds
	return nil
}

type sessionStoreStub struct {
	mu          sync.Mutex
	sessions    map[string]Session
	deleteCalls []time.Time
	createErr   error
	deleteErr   error
}

func newSessionStoreStub() *sessionStoreStub {
	return &sessionStoreStub{sessions: map[string]Session{}}
}

func (s *sessionStoreStub) CreateSession(_ context.Context, session Session) (Session, error) {
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionStoreStub) GetSession(_ context.Context, token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (s *sessionStoreStub) RevokeSession(_ context.Context, token string, revokedAt time.Time) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return session, nil
}

func (s *sessionStoreStub) DeleteExpiredSessions(_ context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls = append(s.deleteCalls, reference)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

type seasonStoreStub struct {
	mu      sync.Mutex
	nextID  int64
	seasons map[int64]Season
	jobs    *jobStoreStub
	err     error
}

func newSeasonStoreStub() *seasonStoreStub {
	return &seasonStoreStub{seasons: map[int64]Season{}}
}

func (s *seasonStoreStub) CreateActiveSeason(_ context.Context, season Season) (Season, error) {
	if s.err != nil {
		return Season{}, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.seasons {
		if existing.OwnerID == season.OwnerID && existing.IsActive {
			end := season.StartDate
			existing.IsActive = false
			existing.EndDate = &end
			s.seasons[id] = existing
		}
	}
	s.nextID++
	season.ID = s.nextID
	s.seasons[season.ID] = season
	return season, nil
}

func (s *seasonStoreStub) GetActiveSeason(_ context.Context, ownerID int64) (Season, error) {
	if s.err != nil {
		return Season{}, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, season := range s.seasons {
		if season.OwnerID == ownerID && season.IsActive {
			return season, nil
		}
	}
	return Season{}, ErrNotFound
}

func (s *seasonStoreStub) GetSeason(_ context.Context, ownerID, seasonID int64) (Season, error) {
	if s.err != nil {
		return Season{}, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	season, ok := s.seasons[seasonID]
	if !ok || season.OwnerID != ownerID {
		return Season{}, ErrNotFound
	}
	return season, nil
}

func (s *seasonStoreStub) ListSeasons(_ context.Context, ownerID int64) ([]Season, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Season
	for _, season := range s.seasons {
		if season.OwnerID == ownerID {
			out = append(out, season)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *seasonStoreStub) EndActiveSeason(_ context.Context, ownerID int64, endedAt time.Time) (Season, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, season := range s.seasons {
		if season.OwnerID == ownerID && season.IsActive {
			season.IsActive = false
			season.EndDate = &endedAt
			s.seasons[id] = season
			return season, nil
		}
	}
	return Season{}, ErrNotFound
}

func (s *seasonStoreStub) DeleteSeason(_ context.Context, ownerID, seasonID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	season, ok := s.seasons[seasonID]
	if !ok || season.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.seasons, seasonID)
	if s.jobs != nil {
		s.jobs.deleteSeason(seasonID)
	}
	return nil
}

type jobStoreStub struct {
	mu        sync.Mutex
	nextID    int64
	jobs      map[int64]Job
	createErr error
	countErr  error
}

func newJobStoreStub() *jobStoreStub {
	return &jobStoreStub{jobs: map[int64]Job{}}
}

func (s *jobStoreStub) deleteSeason(seasonID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		if job.SeasonID == seasonID {
			delete(s.jobs, id)
		}
	}
}

func (s *jobStoreStub) CreateJob(_ context.Context, job Job) (Job, error) {
	if s.createErr != nil {
		return Job{}, s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	job.ID = s.nextID
	s.jobs[job.ID] = job
	return job, nil
}

func (s *jobStoreStub) GetJob(_ context.Context, ownerID, jobID int64) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		return Job{}, ErrNotFound
	}
	return job, nil
}

func (s *jobStoreStub) ListJobs(_ context.Context, query JobQuery) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Job
	term := strings.ToLower(query.Search)
	for _, job := range s.jobs {
		if job.OwnerID != query.OwnerID || job.SeasonID != query.SeasonID {
			continue
		}
		if query.Status != "" && job.Status != query.Status {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(job.Role), term) &&
			!strings.Contains(strings.ToLower(job.CompanyName), term) &&
			!strings.Contains(strings.ToLower(job.Source), term) {
			continue
		}
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppliedDate.Equal(out[j].AppliedDate) {
			return out[i].AppliedDate.After(out[j].AppliedDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *jobStoreStub) UpdateJob(_ context.Context, job Job) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.jobs[job.ID]
	if !ok || existing.OwnerID != job.OwnerID {
		return Job{}, ErrNotFound
	}
	s.jobs[job.ID] = job
	return job, nil
}

func (s *jobStoreStub) UpdateJobStatus(_ context.Context, ownerID, jobID int64, status JobStatus, updatedAt time.Time) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		return Job{}, ErrNotFound
	}
	job.Status = status
	job.LastUpdated = updatedAt
	s.jobs[jobID] = job
	return job, nil
}

func (s *jobStoreStub) DeleteJob(_ context.Context, ownerID, jobID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.jobs, jobID)
	return nil
}

func (s *jobStoreStub) CountByStatus(_ context.Context, ownerID, seasonID int64) (map[JobStatus]int, error) {
	if s.countErr != nil {
		return nil, s.countErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[JobStatus]int{}
	for _, job := range s.jobs {
		if job.OwnerID == ownerID && job.SeasonID == seasonID {
			counts[job.Status]++
		}
	}
	return counts, nil
}

var errStoreDown = errors.New("store unavailable")
