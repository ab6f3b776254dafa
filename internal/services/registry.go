package services

import (
	"context"

	"github.com/wosledon/vitanote/internal/chat"
	"github.com/wosledon/vitanote/internal/events"
	"github.com/wosledon/vitanote/internal/food"
	"github.com/wosledon/vitanote/internal/medication"
	"github.com/wosledon/vitanote/internal/records"
	"github.com/wosledon/vitanote/internal/statistics"
	"github.com/wosledon/vitanote/internal/users"
	"github.com/wosledon/vitanote/pkg/auth"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Registry provides access to all VitaNote services.
type Registry interface {
	Users() *users.Service
	Records() *records.Service
	Food() *food.Service
	Medication() *medication.Service
	Statistics() *statistics.Service
	Chat() *chat.Service
	Tokens() *auth.TokenIssuer
	Publisher() events.Publisher
	Database() Pinger
}

// Options configures the registry with service instances.
type Options struct {
	Users      *users.Service
	Records    *records.Service
	Food       *food.Service
	Medication *medication.Service
	Statistics *statistics.Service
	Chat       *chat.Service
	Tokens     *auth.TokenIssuer
	Publisher  events.Publisher
	Database   Pinger
}

type registry struct {
	users      *users.Service
	records    *records.Service
	food       *food.Service
	medication *medication.Service
	statistics *statistics.Service
	chat       *chat.Service
	tokens     *auth.TokenIssuer
	publisher  events.Publisher
	database   Pinger
}

// NewRegistry creates a new service registry. A nil publisher is replaced
// by events.NopPublisher.
func NewRegistry(opts Options) Registry {
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	return &registry{
		users:      opts.Users,
		records:    opts.Records,
		food:       opts.Food,
		medication: opts.Medication,
		statistics: opts.Statistics,
		chat:       opts.Chat,
		tokens:     opts.Tokens,
		publisher:  opts.Publisher,
		database:   opts.Database,
	}
}

func (r *registry) Users() *users.Service           { return r.users }
func (r *registry) Records() *records.Service       { return r.records }
func (r *registry) Food() *food.Service             { return r.food }
func (r *registry) Medication() *medication.Service { return r.medication }
func (r *registry) Statistics() *statistics.Service { return r.statistics }
func (r *registry) Chat() *chat.Service             { return r.chat }
func (r *registry) Tokens() *auth.TokenIssuer       { return r.tokens }
func (r *registry) Publisher() events.Publisher     { return r.publisher }
func (r *registry) Database() Pinger                { return r.database }
