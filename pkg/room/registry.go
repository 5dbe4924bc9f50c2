package room

import (
	"math/rand"
	"sync"
	"time"

	"github.com/phira-mp/server/pkg/protocol"
)

// Registry owns every live Room plus the cross-room userID->roomID inverse
// index that keeps membership-uniqueness checks O(1) (§9). It implements
// concurrency model (b) from §5: a single RWMutex for registry-level
// operations (create, destroy, the inverse index) and one mutex per Room
// for in-room mutation. A mutation that touches both acquires the registry
// lock first, then the room lock, never the other order.
type Registry struct {
	mu           sync.RWMutex
	rooms        map[string]*Room
	index        map[int32]string // userID -> roomID
	monitorIndex map[int32]string // userID -> roomID, for seated monitors only

	monitors map[int32]bool

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRegistry builds an empty Registry. monitors is the process-wide
// monitor roster loaded at startup (§3); pass nil for an empty roster.
func NewRegistry(monitors map[int32]bool) *Registry {
	if monitors == nil {
		monitors = map[int32]bool{}
	}
	return &Registry{
		rooms:        make(map[string]*Room),
		index:        make(map[int32]string),
		monitorIndex: make(map[int32]string),
		monitors:     monitors,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// IsMonitor reports whether userID is in the monitor roster.
func (reg *Registry) IsMonitor(userID int32) bool {
	return reg.monitors[userID]
}

func (reg *Registry) randIntn(n int) int {
	reg.rngMu.Lock()
	defer reg.rngMu.Unlock()
	return reg.rng.Intn(n)
}

// RoomOf returns the id of the room userID currently occupies as a player,
// if any. Seated monitors are not reported here; use IsSeated to cover both.
func (reg *Registry) RoomOf(userID int32) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	id, ok := reg.index[userID]
	return id, ok
}

// IsSeated reports whether userID currently occupies a room, either as a
// player or as a seated monitor. LeaveRoom is the matching departure call
// for either case.
func (reg *Registry) IsSeated(userID int32) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if _, ok := reg.index[userID]; ok {
		return true
	}
	_, ok := reg.monitorIndex[userID]
	return ok
}

// RoomCount returns the number of live rooms, for metrics/admin use.
func (reg *Registry) RoomCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// UserCount returns the number of users currently in any room as players;
// seated monitors are not counted.
func (reg *Registry) UserCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.index)
}

func (reg *Registry) getRoomLocked(id string) (*Room, bool) {
	r, ok := reg.rooms[id]
	return r, ok
}

// RelayInRoom fans out an already-framed packet (Touches/Judges telemetry,
// §6) to every other member and monitor of the room userID currently
// occupies as a player. A no-op if userID is not a player in any room; a
// seated monitor's packets are not relayed.
func (reg *Registry) RelayInRoom(userID int32, f *protocol.Frame) {
	reg.mu.RLock()
	roomID, ok := reg.index[userID]
	if !ok {
		reg.mu.RUnlock()
		return
	}
	r, ok := reg.getRoomLocked(roomID)
	reg.mu.RUnlock()
	if !ok {
		return
	}

	r.mu.Lock()
	r.broadcastLocked(f, userID, false)
	r.mu.Unlock()
}

// --- CreateRoom ---

// CreateRoom creates roomID with creator as its sole member and host
// (§4.4). Rejects room_duplicate_create if the user is already in any
// room, room_already_exist if the id is taken.
func (reg *Registry) CreateRoom(roomID string, creator UserIdentity, sender Sender) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.index[creator.ID]; ok {
		return OpError(ReasonRoomDuplicateCreate)
	}
	if _, ok := reg.rooms[roomID]; ok {
		return OpError(ReasonRoomAlreadyExist)
	}

	r := newRoom(roomID, creator, sender)
	reg.rooms[roomID] = r
	reg.index[creator.ID] = roomID
	return nil
}

// --- JoinRoom ---

// JoinRoomAsMonitor adds userID to roomID's monitor list and sets the room
// live, per the resolved Open Question in SPEC_FULL.md §10.1. It does not
// occupy a player slot and is exempt from the lock / WaitForReady checks a
// normal join is subject to. Only userIDs on the global monitor roster may
// take this path; everyone else is rejected with room_not_found, same as
// the original's "no monitor privilege" outcome.
func (reg *Registry) JoinRoomAsMonitor(roomID string, user UserIdentity, sender Sender) (protocol.RoomInfo, error) {
	if !reg.IsMonitor(user.ID) {
		return protocol.RoomInfo{}, OpError(ReasonRoomNotFound)
	}

	reg.mu.Lock()
	r, ok := reg.getRoomLocked(roomID)
	if !ok {
		reg.mu.Unlock()
		return protocol.RoomInfo{}, OpError(ReasonRoomNotFound)
	}
	reg.monitorIndex[user.ID] = roomID
	reg.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.addMonitorLocked(user, sender)
	r.live = true

	info := r.snapshotInfoForMonitorLocked(user.ID)
	r.broadcastLocked(protocol.EncodeOutbound(protocol.OnJoinRoomOut{Profile: user.Profile(), IsMonitor: true}), user.ID, false)
	return info, nil
}

// JoinRoom adds userID to roomID as a regular (non-monitor) member.
func (reg *Registry) JoinRoom(roomID string, user UserIdentity, sender Sender) (protocol.RoomInfo, error) {
	reg.mu.Lock()
	if _, already := reg.index[user.ID]; already {
		reg.mu.Unlock()
		return protocol.RoomInfo{}, OpError(ReasonRoomDuplicateJoin)
	}
	r, ok := reg.getRoomLocked(roomID)
	if !ok {
		reg.mu.Unlock()
		return protocol.RoomInfo{}, OpError(ReasonRoomNotFound)
	}

	r.mu.Lock()
	if r.locked {
		r.mu.Unlock()
		reg.mu.Unlock()
		return protocol.RoomInfo{}, OpError(ReasonRoomLocked)
	}
	if r.state.IsWaitForReady() {
		r.mu.Unlock()
		reg.mu.Unlock()
		return protocol.RoomInfo{}, OpError(ReasonRoomInReadyState)
	}

	r.addMemberLocked(user, sender)
	reg.index[user.ID] = roomID
	info := r.snapshotInfoLocked(user.ID)

	r.broadcastLocked(protocol.EncodeOutbound(protocol.OnJoinRoomOut{Profile: user.Profile(), IsMonitor: false}), user.ID, false)
	r.broadcastMessageLocked(protocol.JoinRoomMessage{UserID: user.ID, Name: user.Name}, user.ID, false)

	r.mu.Unlock()
	reg.mu.Unlock()
	return info, nil
}

// --- LeaveRoom ---

// LeaveResult describes the consequences of a LeaveRoom so the session
// handler can emit ChangeHost without holding any lock.
type LeaveResult struct {
	RoomDestroyed bool
	NewHost       int32 // valid only if NewHostChosen
	NewHostChosen bool
}

// LeaveRoom removes userID from whatever room it occupies. Per §4.4 the
// host-succession draw happens before removal, over the pre-leave
// membership minus the caller, so it is unaffected by the removal itself.
func (reg *Registry) LeaveRoom(userID int32) (LeaveResult, error) {
	reg.mu.Lock()
	roomID, ok := reg.index[userID]
	if !ok {
		monitorRoomID, isMonitor := reg.monitorIndex[userID]
		if !isMonitor {
			reg.mu.Unlock()
			return LeaveResult{}, OpError(ReasonNotInRoom)
		}
		delete(reg.monitorIndex, userID)
		r, ok := reg.getRoomLocked(monitorRoomID)
		reg.mu.Unlock()
		if !ok {
			return LeaveResult{}, nil
		}
		r.mu.Lock()
		r.removeMonitorLocked(userID)
		r.mu.Unlock()
		return LeaveResult{}, nil
	}
	r := reg.rooms[roomID]

	r.mu.Lock()
	wasHost := r.isHostLocked(userID)
	remaining := len(r.users) - 1
	leavingName := ""
	if m, ok := r.memberLocked(userID); ok {
		leavingName = m.Identity.Name
	}

	var result LeaveResult
	if wasHost && remaining == 0 {
		result.RoomDestroyed = true
	} else if wasHost {
		candidates := make([]int32, 0, remaining)
		for _, id := range r.order {
			if id != userID {
				candidates = append(candidates, id)
			}
		}
		chosen := candidates[reg.randIntn(len(candidates))]
		result.NewHost = chosen
		result.NewHostChosen = true
	}

	r.removeMemberLocked(userID)
	r.broadcastMessageLocked(protocol.LeaveRoomMessage{UserID: userID, Name: leavingName}, 0, true)

	if result.RoomDestroyed {
		delete(reg.index, userID)
		for _, id := range r.monitorOrder {
			delete(reg.monitorIndex, id)
		}
		delete(reg.rooms, roomID)
		r.mu.Unlock()
		reg.mu.Unlock()
		return result, nil
	}

	if result.NewHostChosen {
		r.host = &result.NewHost
		r.sendToLocked(result.NewHost, protocol.EncodeOutbound(protocol.ChangeHostOut{IsHost: true}))
	}

	delete(reg.index, userID)
	r.mu.Unlock()
	reg.mu.Unlock()
	return result, nil
}

// --- admin operations (§4.5) ---

// ForceDestroy broadcasts an abort notice to every member then removes the
// room. Skips the host/in-room preconditions a normal caller needs. Callers
// that want an operator-supplied reason on record should log it themselves;
// the wire AbortMessage carries only a user id, with no room for one.
func (reg *Registry) ForceDestroy(roomID string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.getRoomLocked(roomID)
	if !ok {
		return OpError(ReasonRoomNotFound)
	}

	r.mu.Lock()
	r.broadcastMessageLocked(protocol.AbortMessage{UserID: 0}, 0, true)
	for _, id := range r.order {
		delete(reg.index, id)
	}
	for _, id := range r.monitorOrder {
		delete(reg.monitorIndex, id)
	}
	r.mu.Unlock()

	delete(reg.rooms, roomID)
	return nil
}

// ForceKick removes userID from roomID, notifying the kicked user and the
// remaining members.
func (reg *Registry) ForceKick(roomID string, userID int32) error {
	reg.mu.Lock()
	r, ok := reg.getRoomLocked(roomID)
	if !ok {
		reg.mu.Unlock()
		return OpError(ReasonRoomNotFound)
	}

	r.mu.Lock()
	m, inRoom := r.memberLocked(userID)
	if !inRoom {
		r.mu.Unlock()
		reg.mu.Unlock()
		return OpError(ReasonNotInRoom)
	}

	wasHost := r.isHostLocked(userID)
	remaining := len(r.users) - 1

	m.Sender.Send(protocol.EncodeOutbound(protocol.MessageOut{Message: protocol.AbortMessage{UserID: userID}}))
	r.removeMemberLocked(userID)
	delete(reg.index, userID)

	if remaining == 0 {
		r.broadcastMessageLocked(protocol.LeaveRoomMessage{UserID: userID, Name: m.Identity.Name}, 0, true)
		r.mu.Unlock()
		delete(reg.rooms, roomID)
		reg.mu.Unlock()
		return nil
	}

	r.broadcastMessageLocked(protocol.LeaveRoomMessage{UserID: userID, Name: m.Identity.Name}, 0, true)
	if wasHost {
		newHost := r.order[0]
		r.host = &newHost
		r.sendToLocked(newHost, protocol.EncodeOutbound(protocol.ChangeHostOut{IsHost: true}))
	}
	r.mu.Unlock()
	reg.mu.Unlock()
	return nil
}

// --- SelectChart (two-phase external call, §5) ---

// lookupRoomForHost finds roomID and validates userID is in-room and host.
// Called twice around an external call (§5): once before, once after, so
// the second call re-observes any change that happened mid-flight.
func (reg *Registry) lookupRoomForHost(roomID string, userID int32) (*Room, error) {
	reg.mu.RLock()
	r, ok := reg.getRoomLocked(roomID)
	reg.mu.RUnlock()
	if !ok {
		return nil, OpError(ReasonRoomNotFound)
	}
	r.mu.Lock()
	_, inRoom := r.memberLocked(userID)
	isHost := r.isHostLocked(userID)
	r.mu.Unlock()
	if !inRoom {
		return nil, OpError(ReasonNotInRoom)
	}
	if !isHost {
		return nil, OpError(ReasonNotHost)
	}
	return r, nil
}

// SelectChart sets roomID's chart, after fetching chart metadata through
// fetchChartName outside of any lock (§5's external-call rule). It
// re-validates host/membership after the call returns, since the caller
// may have left or lost host while the HTTP round trip was in flight.
func (reg *Registry) SelectChart(roomID string, userID int32, chartID int32, fetchChartName func(int32) (string, error)) error {
	if _, err := reg.lookupRoomForHost(roomID, userID); err != nil {
		return err
	}

	chartName, err := fetchChartName(chartID)
	if err != nil {
		return OpError(ReasonChartFetchFailed)
	}

	r, err := reg.lookupRoomForHost(roomID, userID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check: host may have changed mid-flight even though the room
	// itself still exists (lookupRoomForHost already re-verified both).
	id := chartID
	r.chart = &id
	r.state = protocol.NewSelectChart(chartID, true)
	r.broadcastStateLocked()
	r.broadcastMessageLocked(protocol.SelectChartMessage{UserID: userID, Name: chartName, ChartID: chartID}, 0, true)
	return nil
}

// --- LockRoom / CycleRoom ---

// LockRoom sets roomID's locked flag, idempotent-rejecting a no-op request.
func (reg *Registry) LockRoom(roomID string, userID int32, lock bool) error {
	r, err := reg.lookupRoomForHost(roomID, userID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked == lock {
		if lock {
			return OpError(ReasonRoomAlreadyLocked)
		}
		return OpError(ReasonRoomAlreadyUnlocked)
	}
	r.locked = lock
	r.broadcastMessageLocked(protocol.LockRoomMessage{Lock: lock}, 0, true)
	return nil
}

// CycleRoom sets roomID's cycle flag, idempotent-rejecting a no-op request.
func (reg *Registry) CycleRoom(roomID string, userID int32, cycle bool) error {
	r, err := reg.lookupRoomForHost(roomID, userID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cycle == cycle {
		if cycle {
			return OpError(ReasonRoomAlreadyCycled)
		}
		return OpError(ReasonRoomAlreadyNotCycled)
	}
	r.cycle = cycle
	r.broadcastMessageLocked(protocol.CycleRoomMessage{Cycle: cycle}, 0, true)
	return nil
}

// --- RequestStart / Ready / CancelReady ---

// RequestStart transitions roomID from SelectChart to WaitForReady, marks
// the host ready, and runs the ready-quorum check (§4.4).
func (reg *Registry) RequestStart(roomID string, userID int32) error {
	r, err := reg.lookupRoomForHost(roomID, userID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.IsSelectChart() {
		return OpError(ReasonWrongState)
	}
	r.state = protocol.NewWaitForReady()
	r.ready[userID] = true
	r.broadcastStateLocked()
	r.checkReadyQuorumLocked()
	return nil
}

// Ready marks userID ready, allowed only in WaitForReady (§4.4).
func (reg *Registry) Ready(roomID string, userID int32) error {
	reg.mu.RLock()
	r, ok := reg.getRoomLocked(roomID)
	reg.mu.RUnlock()
	if !ok {
		return OpError(ReasonRoomNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, inRoom := r.memberLocked(userID); !inRoom {
		return OpError(ReasonNotInRoom)
	}
	if !r.state.IsWaitForReady() {
		return OpError(ReasonWrongState)
	}
	r.ready[userID] = true
	r.broadcastMessageLocked(protocol.ReadyMessage{UserID: userID}, 0, true)
	r.checkReadyQuorumLocked()
	return nil
}

// CancelReady implements the host and non-host branches of §4.4's
// CancelReady: the host cancels the whole ready wait and returns the room
// to SelectChart(currentChart); anyone else just withdraws their own
// readiness.
func (reg *Registry) CancelReady(roomID string, userID int32) error {
	reg.mu.RLock()
	r, ok := reg.getRoomLocked(roomID)
	reg.mu.RUnlock()
	if !ok {
		return OpError(ReasonRoomNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, inRoom := r.memberLocked(userID); !inRoom {
		return OpError(ReasonNotInRoom)
	}
	if !r.state.IsWaitForReady() {
		return OpError(ReasonWrongState)
	}

	if r.isHostLocked(userID) {
		r.ready = make(map[int32]bool)
		if r.chart != nil {
			r.state = protocol.NewSelectChart(*r.chart, true)
		} else {
			r.state = protocol.NewSelectChart(0, false)
		}
		r.broadcastStateLocked()
		r.broadcastMessageLocked(protocol.CancelGameMessage{UserID: userID}, 0, true)
		return nil
	}

	delete(r.ready, userID)
	r.broadcastMessageLocked(protocol.CancelReadyMessage{UserID: userID}, 0, true)
	return nil
}

// --- Played / Abort ---

// Played fetches the record result through fetchRecord outside any lock,
// then marks userID finished and runs the finish-quorum check. A fetch
// failure never marks the caller finished (§4.4).
func (reg *Registry) Played(roomID string, userID int32, recordID int32, fetchRecord func(int32) (score int32, accuracy float32, fullCombo bool, err error)) error {
	reg.mu.RLock()
	r, ok := reg.getRoomLocked(roomID)
	reg.mu.RUnlock()
	if !ok {
		return OpError(ReasonRoomNotFound)
	}

	r.mu.Lock()
	if _, inRoom := r.memberLocked(userID); !inRoom {
		r.mu.Unlock()
		return OpError(ReasonNotInRoom)
	}
	if !r.state.IsPlaying() {
		r.mu.Unlock()
		return OpError(ReasonWrongState)
	}
	r.mu.Unlock()

	score, accuracy, fullCombo, err := fetchRecord(recordID)
	if err != nil {
		return OpError(ReasonRecordFetchFailed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, inRoom := r.memberLocked(userID); !inRoom {
		return OpError(ReasonNotInRoom)
	}
	if !r.state.IsPlaying() {
		return OpError(ReasonWrongState)
	}
	r.broadcastMessageLocked(protocol.PlayedMessage{UserID: userID, Score: score, Accuracy: accuracy, FullCombo: fullCombo}, 0, true)
	r.finished[userID] = true
	r.checkFinishQuorumLocked()
	return nil
}

// Abort marks userID finished without a record fetch, allowed only in
// Playing (§4.4).
func (reg *Registry) Abort(roomID string, userID int32) error {
	reg.mu.RLock()
	r, ok := reg.getRoomLocked(roomID)
	reg.mu.RUnlock()
	if !ok {
		return OpError(ReasonRoomNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, inRoom := r.memberLocked(userID); !inRoom {
		return OpError(ReasonNotInRoom)
	}
	if !r.state.IsPlaying() {
		return OpError(ReasonWrongState)
	}
	r.broadcastMessageLocked(protocol.AbortMessage{UserID: userID}, 0, true)
	r.finished[userID] = true
	r.checkFinishQuorumLocked()
	return nil
}

// ForceReady marks userID ready on behalf of an administrator, bypassing
// the "must be the caller" precondition but preserving quorum semantics.
func (reg *Registry) ForceReady(roomID string, userID int32) error {
	reg.mu.RLock()
	r, ok := reg.getRoomLocked(roomID)
	reg.mu.RUnlock()
	if !ok {
		return OpError(ReasonRoomNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.IsWaitForReady() {
		return OpError(ReasonWrongState)
	}
	if _, ok := r.memberLocked(userID); !ok {
		return OpError(ReasonNotInRoom)
	}
	r.ready[userID] = true
	r.broadcastMessageLocked(protocol.ReadyMessage{UserID: userID}, 0, true)
	r.checkReadyQuorumLocked()
	return nil
}
