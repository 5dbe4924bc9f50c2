package room

// Reason strings are localisation keys (§7): the session handler resolves
// them via the caller's language before they reach the wire, which is why
// this package never formats them — it only ever returns the key.
const (
	ReasonRoomAlreadyExist     = "room_already_exist"
	ReasonRoomDuplicateCreate  = "room_duplicate_create"
	ReasonRoomDuplicateJoin    = "room_duplicate_join"
	ReasonRoomNotFound         = "room_not_found"
	ReasonRoomLocked           = "room_already_locked"
	ReasonRoomInReadyState     = "room_in_ready_state"
	ReasonNotInRoom            = "not_in_room"
	ReasonNotHost              = "not_host"
	ReasonRoomAlreadyLocked    = "room_already_locked"
	ReasonRoomAlreadyUnlocked  = "room_already_unlocked"
	ReasonRoomAlreadyCycled    = "room_already_cycled"
	ReasonRoomAlreadyNotCycled = "room_already_not_cycled"
	ReasonWrongState           = "wrong_state"
	ReasonUserDuplicateJoin    = "user_duplicate_join"
	ReasonChartFetchFailed     = "chart_fetch_failed"
	ReasonRecordFetchFailed    = "record_fetch_failed"
)
