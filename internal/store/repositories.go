package store

import (
	"github.com/wosledon/vitanote/internal/chat"
	"github.com/wosledon/vitanote/internal/food"
	"github.com/wosledon/vitanote/internal/medication"
	"github.com/wosledon/vitanote/internal/records"
	"github.com/wosledon/vitanote/internal/users"
)

var (
	_ users.Repository      = (*Store)(nil)
	_ records.Repository    = (*Store)(nil)
	_ food.Repository       = (*Store)(nil)
	_ medication.Repository = (*Store)(nil)
	_ chat.Repository       = (*Store)(nil)
)
