package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"ecauth/internal/domain/model"
	"ecauth/internal/infra/token"
	"ecauth/internal/infra/totp"
	"ecauth/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// メモリ上のストア一式。DBと同じくコピーを出し入れする
type memStore struct {
	mu       sync.Mutex
	accounts map[int64]model.Account
	roles    map[int64]model.Role
	codes    []model.VerificationCode
	devices  map[int64]model.Device
	sessions map[int64]model.Session
	audits   []model.AuditLog
	nextID   int64
}

func newMemStore() *memStore {
	s := &memStore{
		accounts: map[int64]model.Account{},
		roles:    map[int64]model.Role{},
		devices:  map[int64]model.Device{},
		sessions: map[int64]model.Session{},
	}
	s.roles[1] = model.Role{ID: 1, Name: model.RoleNameAdmin, IsActive: true, Permissions: []model.Permission{
		{ID: 1, Name: model.PermUsersRead}, {ID: 2, Name: model.PermUsersUpdate}, {ID: 3, Name: model.PermAuditLogsRead},
	}}
	s.roles[2] = model.Role{ID: 2, Name: model.RoleNameManager, IsActive: true, Permissions: []model.Permission{
		{ID: 1, Name: model.PermUsersRead},
	}}
	s.roles[3] = model.Role{ID: 3, Name: model.RoleNameUser, IsActive: true}
	return s
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

// ---- accounts

type memAccounts struct{ s *memStore }

func (r memAccounts) Create(_ context.Context, a *model.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.accounts {
		if x.Email == a.Email {
			return repository.ErrEmailAlreadyExists
		}
	}
	a.ID = r.s.id()
	r.s.accounts[a.ID] = *a
	return nil
}

func (r memAccounts) withRole(a model.Account) *model.Account {
	a.Role = r.s.roles[a.RoleID]
	return &a
}

func (r memAccounts) FindByID(_ context.Context, id int64) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return r.withRole(a), nil
}

func (r memAccounts) find(match func(model.Account) bool) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if match(a) {
			return r.withRole(a), nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (r memAccounts) FindByEmail(_ context.Context, email string) (*model.Account, error) {
	return r.find(func(a model.Account) bool { return a.Email == email })
}

func (r memAccounts) FindByGoogleID(_ context.Context, googleID string) (*model.Account, error) {
	return r.find(func(a model.Account) bool { return a.GoogleID != nil && *a.GoogleID == googleID })
}

func (r memAccounts) update(id int64, fn func(*model.Account)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	fn(&a)
	r.s.accounts[id] = a
	return nil
}

func (r memAccounts) MarkEmailVerified(_ context.Context, id int64, at time.Time) error {
	return r.update(id, func(a *model.Account) { a.EmailVerifiedAt = &at })
}

func (r memAccounts) UpdatePassword(_ context.Context, id int64, hash string) error {
	return r.update(id, func(a *model.Account) { a.PasswordHash = &hash })
}

func (r memAccounts) UpdateTwoFactor(_ context.Context, id int64, enabled bool, secret *string) error {
	return r.update(id, func(a *model.Account) {
		a.TwoFactorEnabled = enabled
		if secret == nil {
			a.TOTPSecret = nil
			return
		}
		v := *secret
		a.TOTPSecret = &v
	})
}

func (r memAccounts) UpdateStatus(_ context.Context, id int64, status model.AccountStatus) error {
	return r.update(id, func(a *model.Account) { a.Status = status })
}

func (r memAccounts) LinkGoogleID(_ context.Context, id int64, googleID string, verifiedAt *time.Time) error {
	return r.update(id, func(a *model.Account) {
		a.GoogleID = &googleID
		if a.EmailVerifiedAt == nil && verifiedAt != nil {
			a.EmailVerifiedAt = verifiedAt
		}
	})
}

func (r memAccounts) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	return r.update(id, func(a *model.Account) { a.LastLoginAt = &at })
}

// ---- roles

type memRoles struct{ s *memStore }

func (r memRoles) FindByID(_ context.Context, id int64) (*model.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[id]
	if !ok {
		return nil, repository.ErrRoleNotFound
	}
	return &role, nil
}

func (r memRoles) FindByName(_ context.Context, name string) (*model.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, role := range r.s.roles {
		if role.Name == name {
			role := role
			return &role, nil
		}
	}
	return nil, repository.ErrRoleNotFound
}

// ---- codes

type memCodes struct{ s *memStore }

func (r memCodes) deleteLocked(email string, purpose model.CodePurpose) {
	kept := r.s.codes[:0]
	for _, c := range r.s.codes {
		if c.Email == email && c.Purpose == purpose {
			continue
		}
		kept = append(kept, c)
	}
	r.s.codes = kept
}

func (r memCodes) Replace(_ context.Context, code *model.VerificationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.deleteLocked(code.Email, code.Purpose)
	code.ID = r.s.id()
	r.s.codes = append(r.s.codes, *code)
	return nil
}

func (r memCodes) ReplaceUnlessRecent(_ context.Context, code *model.VerificationCode, since time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.codes {
		if c.Email == code.Email && c.Purpose == code.Purpose && !c.CreatedAt.Before(since) {
			return repository.ErrCodeRecentlyIssued
		}
	}
	r.deleteLocked(code.Email, code.Purpose)
	code.ID = r.s.id()
	r.s.codes = append(r.s.codes, *code)
	return nil
}

func (r memCodes) FindValid(_ context.Context, email, code string, purpose model.CodePurpose, now time.Time) (*model.VerificationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.codes {
		if c.Email == email && c.Code == code && c.Purpose == purpose && c.ExpiresAt.After(now) {
			c := c
			return &c, nil
		}
	}
	return nil, repository.ErrVerificationCodeNotFound
}

func (r memCodes) ExistsCreatedSince(_ context.Context, email string, purpose model.CodePurpose, since time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.codes {
		if c.Email == email && c.Purpose == purpose && !c.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r memCodes) ConsumeValid(_ context.Context, email, code string, purpose model.CodePurpose, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, c := range r.s.codes {
		if c.Email == email && c.Code == code && c.Purpose == purpose && c.ExpiresAt.After(now) {
			r.s.codes = append(r.s.codes[:i], r.s.codes[i+1:]...)
			return nil
		}
	}
	return repository.ErrVerificationCodeNotFound
}

func (r memCodes) DeleteByEmailAndPurpose(_ context.Context, email string, purpose model.CodePurpose) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.deleteLocked(email, purpose)
	return nil
}

func (r memCodes) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.codes[:0]
	var n int64
	for _, c := range r.s.codes {
		if c.ExpiresAt.Before(now) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	r.s.codes = kept
	return n, nil
}

// ---- devices

type memDevices struct{ s *memStore }

func (r memDevices) UpsertByFingerprint(_ context.Context, d *model.Device) (*model.Device, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, x := range r.s.devices {
		if x.Fingerprint == d.Fingerprint {
			x.IP = d.IP
			x.UserAgent = d.UserAgent
			x.LastActiveAt = d.LastActiveAt
			x.IsActive = true
			r.s.devices[id] = x
			return &x, nil
		}
	}
	d.ID = r.s.id()
	r.s.devices[d.ID] = *d
	out := *d
	return &out, nil
}

func (r memDevices) FindByID(_ context.Context, accountID, deviceID int64) (*model.Device, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.devices[deviceID]
	if !ok || d.AccountID != accountID {
		return nil, repository.ErrDeviceNotFound
	}
	return &d, nil
}

func (r memDevices) Touch(_ context.Context, deviceID int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.devices[deviceID]
	if !ok {
		return repository.ErrDeviceNotFound
	}
	d.LastActiveAt = at
	r.s.devices[deviceID] = d
	return nil
}

func (r memDevices) Deactivate(_ context.Context, accountID, deviceID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.devices[deviceID]
	if ok && d.AccountID == accountID {
		d.IsActive = false
		r.s.devices[deviceID] = d
	}
	return nil
}

func (r memDevices) ListActiveByAccountID(_ context.Context, accountID int64) ([]model.DeviceSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.DeviceSummary
	for _, d := range r.s.devices {
		if d.AccountID != accountID || !d.IsActive {
			continue
		}
		var n int64
		for _, s := range r.s.sessions {
			if s.DeviceID == d.ID && s.IsActive {
				n++
			}
		}
		out = append(out, model.DeviceSummary{Device: d, ActiveSessionCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActiveAt.After(out[j].LastActiveAt) })
	return out, nil
}

// ---- sessions

type memSessions struct{ s *memStore }

func (r memSessions) Create(_ context.Context, sess *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess.ID = r.s.id()
	r.s.sessions[sess.ID] = *sess
	return nil
}

func (r memSessions) FindUsableByRefreshHash(_ context.Context, hash string, now time.Time) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, s := range r.s.sessions {
		if s.RefreshTokenHash == hash && s.IsActive && s.ExpiresAt.After(now) {
			return &s, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (r memSessions) UpdateAccessToken(_ context.Context, id int64, accessHash, ip string, usedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s, ok := r.s.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	s.AccessTokenHash = accessHash
	s.IP = ip
	s.LastUsedAt = usedAt
	r.s.sessions[id] = s
	return nil
}

func (r memSessions) deactivate(match func(model.Session) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, s := range r.s.sessions {
		if s.IsActive && match(s) {
			s.IsActive = false
			r.s.sessions[id] = s
			n++
		}
	}
	return n
}

func (r memSessions) DeactivateByRefreshHash(_ context.Context, accountID int64, hash string) (int64, error) {
	return r.deactivate(func(s model.Session) bool { return s.AccountID == accountID && s.RefreshTokenHash == hash }), nil
}

func (r memSessions) DeactivateAllByAccountID(_ context.Context, accountID int64) (int64, error) {
	return r.deactivate(func(s model.Session) bool { return s.AccountID == accountID }), nil
}

func (r memSessions) DeactivateByDevice(_ context.Context, accountID, deviceID int64) (int64, error) {
	return r.deactivate(func(s model.Session) bool { return s.AccountID == accountID && s.DeviceID == deviceID }), nil
}

func (r memSessions) ListActiveByAccountID(_ context.Context, accountID int64, now time.Time) ([]model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Session
	for _, s := range r.s.sessions {
		if s.AccountID == accountID && s.IsActive && s.ExpiresAt.After(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

// ---- audit logs / tx

type memAudits struct{ s *memStore }

func (r memAudits) Create(_ context.Context, l model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.ID = r.s.id()
	r.s.audits = append(r.s.audits, l)
	return nil
}

func (r memAudits) List(_ context.Context, _ repository.AuditLogFilter) ([]model.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]model.AuditLog(nil), r.s.audits...), nil
}

type memTx struct{ s *memStore }

func (t memTx) Accounts() repository.AccountRepository       { return memAccounts{t.s} }
func (t memTx) Sessions() repository.SessionRepository       { return memSessions{t.s} }
func (t memTx) Codes() repository.VerificationCodeRepository { return memCodes{t.s} }
func (t memTx) AuditLogs() repository.AuditLogRepository     { return memAudits{t.s} }

func (t memTx) WithinTx(_ context.Context, fn func(r repository.TxRepos) error) error {
	return fn(t)
}

// ---- mailer / validator

type sentMail struct {
	kind string
	to   string
	code string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) record(kind, to, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: kind, to: to, code: code})
}

func (m *recordingMailer) SendVerificationCode(_ context.Context, to, code string, _ time.Duration) error {
	m.record("verify", to, code)
	return nil
}

func (m *recordingMailer) SendPasswordResetCode(_ context.Context, to, code string, _ time.Duration) error {
	m.record("reset", to, code)
	return nil
}

func (m *recordingMailer) SendPasswordChanged(_ context.Context, to string) error {
	m.record("changed", to, "")
	return nil
}

func (m *recordingMailer) last(kind string) (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind {
			return m.sent[i], true
		}
	}
	return sentMail{}, false
}

func (m *recordingMailer) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.kind == kind {
			n++
		}
	}
	return n
}

// 入力チェックはvalidatorパッケージ側でテストする
type passValidator struct{}

func (passValidator) ValidateRegister(context.Context, RegisterInput) error           { return nil }
func (passValidator) ValidateVerifyEmail(context.Context, string, string) error       { return nil }
func (passValidator) ValidateEmail(context.Context, string) error                     { return nil }
func (passValidator) ValidateResetPassword(context.Context, ResetPasswordInput) error { return nil }
func (passValidator) ValidateLogin(context.Context, string, string) error             { return nil }
func (passValidator) ValidateLogin2FA(context.Context, string, string) error          { return nil }
func (passValidator) ValidateRefresh(context.Context, string) error                   { return nil }
func (passValidator) ValidateTOTPCode(context.Context, string) error                  { return nil }
func (passValidator) ValidateDisable2FA(context.Context, string, string) error        { return nil }

// ---- harness

type harness struct {
	uc     *AuthUsecase
	store  *memStore
	clock  *fakeClock
	mailer *recordingMailer
	totp   *totp.Engine
	tokens *token.JWTIssuer
	codes  *CodeStore
}

func newHarness() *harness {
	return newHarnessWithCodes(func(s *memStore) repository.VerificationCodeRepository { return memCodes{s} })
}

// CodeStoreが使うコードのrepoだけ差し替える
func newHarnessWithCodes(codesRepo func(*memStore) repository.VerificationCodeRepository) *harness {
	store := newMemStore()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	mailer := &recordingMailer{}
	engine := totp.NewEngine(totp.Config{Issuer: "E-Commerce", Digits: 6, Period: 30, Window: 1})
	tokens := token.NewJWTIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour, clock)
	codes := NewCodeStore(codesRepo(store), nil, clock, 300*time.Second, 60*time.Second)

	uc := NewAuthUsecase(Deps{
		Accounts:  memAccounts{store},
		Roles:     memRoles{store},
		Tx:        memTx{store},
		Codes:     codes,
		Devices:   NewDeviceRegistry(memDevices{store}, clock),
		Sessions:  NewSessionStore(memSessions{store}, clock),
		Hasher:    NewBcryptPasswordHasher(4),
		Verifier:  NewBcryptPasswordVerifier(),
		Tokens:    tokens,
		Totp:      engine,
		Mailer:    mailer,
		Validator: passValidator{},
		Clock:     clock,
	})

	return &harness{uc: uc, store: store, clock: clock, mailer: mailer, totp: engine, tokens: tokens, codes: codes}
}

func (h *harness) countSessions() int {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return len(h.store.sessions)
}

func (h *harness) countDevices() int {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return len(h.store.devices)
}
