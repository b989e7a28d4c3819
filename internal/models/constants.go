package models

// Booking statuses. StatusUpdated is accepted by storage but no transition sets it.
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
	StatusUpdated   = "updated"
)

const (
	RoleAdmin           = "admin"
	RoleRegular         = "regular"
	RoleFacilityManager = "facility_manager"
	RoleAuditor         = "auditor"
	RoleModerator       = "moderator"
)

// RoomStatusAvailable is the status assigned to rooms created without one.
const RoomStatusAvailable = "available"

const (
	// DefaultCacheTTL время жизни записей справочника пользователей и комнат, секунды
	DefaultCacheTTL = 5 * 60

	// DefaultCacheCleanup интервал очистки просроченных записей, секунды
	DefaultCacheCleanup = 10 * 60

	// DefaultTokenTTL время жизни JWT, минуты
	DefaultTokenTTL = 60

	// RateLimitRPS запросов в секунду на клиента по умолчанию
	RateLimitRPS = 10

	// RateLimitBurst размер всплеска по умолчанию
	RateLimitBurst = 20
)
