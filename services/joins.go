package services

import (
	"context"
	"strings"
	"time"

	"github.com/Moshfiqmoon/joingroup/models"
	"github.com/rs/zerolog"
)

// JoinState is how far a join request made it through the workflow
type JoinState string

const (
	JoinReceived  JoinState = "received"
	JoinApproved  JoinState = "approved"
	JoinPersisted JoinState = "persisted"
	JoinNotified  JoinState = "notified"
)

// DefaultWelcomeText greets a newly approved member. {mention} and
// {title} are substituted per request.
const DefaultWelcomeText = "🎉 Hi {mention}, you are now a member of {title}!"

// PlatformClient is the slice of the messaging platform the workflow
// needs: approving a join and sending a direct message
type PlatformClient interface {
	Approve(ctx context.Context, chatID, userID int64) error
	SendDirectMessage(ctx context.Context, userID int64, text string) error
}

// JoinService runs the join-approval workflow. Each request walks
// received -> approved -> persisted -> notified with independent failure
// handling per edge: an approval failure aborts the request, while
// persistence and notification failures are logged and the workflow
// carries on. The user is already approved on-platform at that point
// and no compensating action is taken.
type JoinService struct {
	Platform    PlatformClient
	Store       *DualStore
	Log         zerolog.Logger
	WelcomeText string
	Now         func() time.Time
}

// NewJoinService creates the workflow around a platform client and the
// persistence facade
func NewJoinService(platform PlatformClient, store *DualStore, log zerolog.Logger) *JoinService {
	return &JoinService{
		Platform:    platform,
		Store:       store,
		Log:         log,
		WelcomeText: DefaultWelcomeText,
		Now:         time.Now,
	}
}

// Run consumes join requests until the stream closes or the context is
// cancelled. It is the only consumer of the platform's event stream and
// runs outside the request-handling concurrency domain.
func (s *JoinService) Run(ctx context.Context, requests <-chan ApprovalRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			state, err := s.Process(ctx, req)
			if err != nil {
				s.Log.Error().Err(err).
					Int64("user_id", req.PlatformUserID).
					Str("state", string(state)).
					Msg("join request failed")
			}
		}
	}
}

// Process walks one join request through the state machine and returns
// the state it reached. The returned error is non-nil only when the
// request aborted before approval; later step failures are logged and
// swallowed because the approval has already committed on-platform.
func (s *JoinService) Process(ctx context.Context, req ApprovalRequest) (JoinState, error) {

	state := JoinReceived
	s.Log.Info().
		Int64("user_id", req.PlatformUserID).
		Str("name", req.DisplayName).
		Str("chat", req.ChatTitle).
		Msg("join request received")

	// Approve on the platform. This is the only step whose failure
	// aborts the request; there is no automatic retry.
	if err := s.Platform.Approve(ctx, req.ChatID, req.PlatformUserID); err != nil {
		return state, err
	}
	state = JoinApproved

	// Persist the new user. A failure here does not roll back the
	// approval: the user stays approved on-platform and the record is
	// simply missing until an operator migrates or the user reappears.
	user := &models.User{
		UserID:     req.PlatformUserID,
		FullName:   req.DisplayName,
		Username:   req.Handle,
		JoinDate:   models.FormatTimestamp(s.Now()),
		InviteLink: req.InviteLink,
	}
	if err := s.Store.SaveUser(ctx, user); err != nil {
		s.Log.Error().Err(err).Int64("user_id", req.PlatformUserID).Msg("persisting joined user failed")
	} else {
		state = JoinPersisted
	}

	// Send the welcome message. Terminal either way: a failed DM never
	// fails the workflow.
	s.notify(ctx, req.PlatformUserID, req.DisplayName, req.ChatTitle)
	state = JoinNotified

	return state, nil

}

// InjectUser is the manual path: persist a user directly and optionally
// send the welcome message, skipping the approval step entirely. Unlike
// the platform-driven flow, a persistence failure here surfaces to the
// caller, since an operator is waiting on the result.
func (s *JoinService) InjectUser(ctx context.Context, user *models.User, welcome bool, chatTitle string) error {
	if user.JoinDate == "" {
		user.JoinDate = models.FormatTimestamp(s.Now())
	}
	if err := s.Store.SaveUser(ctx, user); err != nil {
		return err
	}
	if welcome {
		s.notify(ctx, user.UserID, user.FullName, chatTitle)
	}
	return nil
}

func (s *JoinService) notify(ctx context.Context, userID int64, name, title string) {
	text := s.welcomeMessage(name, title)
	if err := s.Platform.SendDirectMessage(ctx, userID, text); err != nil {
		s.Log.Warn().Err(err).Int64("user_id", userID).Msg("welcome message failed")
		return
	}
	s.Log.Info().Int64("user_id", userID).Msg("welcome message sent")
}

// welcomeMessage renders the welcome template for one user
func (s *JoinService) welcomeMessage(name, title string) string {
	text := s.WelcomeText
	if text == "" {
		text = DefaultWelcomeText
	}
	text = strings.ReplaceAll(text, "{mention}", name)
	text = strings.ReplaceAll(text, "{title}", title)
	return text
}
