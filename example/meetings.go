package main

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ose-micro/mediator"
	"github.com/ose-micro/mediator/container"
)

const (
	joinMeetingHandlerKey  = "meetings.join"
	notifyHostHandlerKey   = "meetings.notify-host"
	auditHandlerKey        = "meetings.audit"
	meetingRepositoryKey   = "meetings.repository"
	maxMeetingParticipants = 100
)

var errMeetingFull = errors.New("meeting is full")

// JoinMeetingCommand adds a user to a meeting. Field rules are enforced by
// the validation middleware.
type JoinMeetingCommand struct {
	mediator.RequestMeta
	MeetingID int `json:"meeting_id" validate:"required,min=1"`
	UserID    int `json:"user_id" validate:"required,min=1"`
}

func NewJoinMeetingCommand(meetingID, userID int) JoinMeetingCommand {
	return JoinMeetingCommand{
		RequestMeta: mediator.NewRequestMeta(),
		MeetingID:   meetingID,
		UserID:      userID,
	}
}

func (JoinMeetingCommand) RequestName() string { return "meetings.join" }

var _ mediator.Request = JoinMeetingCommand{}

type JoinMeetingResult struct {
	MeetingID    int `json:"meeting_id"`
	Participants int `json:"participants"`
}

type UserJoined struct {
	MeetingID int `json:"meeting_id"`
	UserID    int `json:"user_id"`
}

func (UserJoined) EventName() string { return "meetings.user_joined" }

type MeetingStarted struct {
	MeetingID int `json:"meeting_id"`
}

func (MeetingStarted) EventName() string { return "meetings.started" }

// meetingRepository is an in-memory participant store.
type meetingRepository struct {
	mu           sync.Mutex
	participants map[int]map[int]struct{}
}

func (r *meetingRepository) join(meetingID, userID int) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, ok := r.participants[meetingID]
	if !ok {
		users = make(map[int]struct{})
		r.participants[meetingID] = users
	}
	if len(users) >= maxMeetingParticipants {
		return 0, false, errMeetingFull
	}
	users[userID] = struct{}{}
	return len(users), !ok, nil
}

type joinMeetingHandler struct {
	repo *meetingRepository
}

func (h *joinMeetingHandler) Handle(_ context.Context, request mediator.Request) (mediator.Response, []mediator.Event, error) {
	cmd, ok := request.(JoinMeetingCommand)
	if !ok {
		return nil, nil, mediator.ErrUnexpectedRequest
	}

	count, started, err := h.repo.join(cmd.MeetingID, cmd.UserID)
	if err != nil {
		return nil, nil, err
	}

	var events []mediator.Event
	if started {
		events = append(events, MeetingStarted{MeetingID: cmd.MeetingID})
	}
	events = append(events, UserJoined{MeetingID: cmd.MeetingID, UserID: cmd.UserID})

	return &JoinMeetingResult{MeetingID: cmd.MeetingID, Participants: count}, events, nil
}

func newContainer(log *zap.Logger) *container.Container {
	c := container.New()
	c.RegisterInstance(meetingRepositoryKey, &meetingRepository{participants: make(map[int]map[int]struct{})})

	_ = c.Register(joinMeetingHandlerKey, func(ctx context.Context, c *container.Container) (any, error) {
		repo, err := container.Resolve[*meetingRepository](ctx, c, meetingRepositoryKey)
		if err != nil {
			return nil, err
		}
		return &joinMeetingHandler{repo: repo}, nil
	}, container.Transient)

	c.RegisterInstance(notifyHostHandlerKey, mediator.NewEventHandler(func(_ context.Context, ev UserJoined) error {
		log.Info("notifying host", zap.Int("meeting_id", ev.MeetingID), zap.Int("user_id", ev.UserID))
		return nil
	}))
	c.RegisterInstance(auditHandlerKey, mediator.EventHandlerFunc(func(_ context.Context, ev mediator.Event) error {
		log.Info("audit", zap.String("event", ev.EventName()))
		return nil
	}))
	return c
}

func register(requests *mediator.RequestRegistry, events *mediator.EventRegistry) {
	mediator.BindRequest[JoinMeetingCommand](requests, joinMeetingHandlerKey)

	mediator.BindEvent[UserJoined](events, notifyHostHandlerKey)
	mediator.BindEvent[UserJoined](events, auditHandlerKey)
	mediator.BindEvent[MeetingStarted](events, auditHandlerKey)
}
