package room

import (
	"sync"

	"github.com/phira-mp/server/pkg/protocol"
)

// Room is one lobby: a host, a roster of members, a ready/finished quorum,
// and a GameState automaton (§3). Every mutation that observes then
// modifies Room state must hold mu for the whole read-modify-broadcast
// sequence (§5) — callers are the Registry methods in this package; Room's
// own methods assume mu is already held unless noted otherwise.
type Room struct {
	mu sync.Mutex

	id     string
	host   *int32 // nil only transiently during destruction (invariant 2)
	state  protocol.GameState
	live   bool
	locked bool
	cycle  bool

	users map[int32]*Member
	order []int32 // insertion order: cycle rule, host-succession candidates, roster order

	// Monitors observe a room's traffic without occupying a player slot: they
	// never hold host, are never part of ready/finished quorum, and are
	// exempt from the locked / WaitForReady join preconditions (§10.1).
	monitors     map[int32]*Member
	monitorOrder []int32

	chart *int32

	ready    map[int32]bool
	finished map[int32]bool
}

func newRoom(id string, creator UserIdentity, sender Sender) *Room {
	hostID := creator.ID
	r := &Room{
		id:       id,
		host:     &hostID,
		state:    protocol.NewSelectChart(0, false),
		users:    make(map[int32]*Member),
		monitors: make(map[int32]*Member),
		ready:    make(map[int32]bool),
		finished: make(map[int32]bool),
	}
	r.addMemberLocked(creator, sender)
	return r
}

// ID returns the room's identifier.
func (r *Room) ID() string { return r.id }

func (r *Room) addMemberLocked(identity UserIdentity, sender Sender) {
	r.users[identity.ID] = &Member{Identity: identity, Sender: sender}
	r.order = append(r.order, identity.ID)
}

func (r *Room) addMonitorLocked(identity UserIdentity, sender Sender) {
	if _, ok := r.monitors[identity.ID]; ok {
		r.monitors[identity.ID] = &Member{Identity: identity, Sender: sender}
		return
	}
	r.monitors[identity.ID] = &Member{Identity: identity, Sender: sender}
	r.monitorOrder = append(r.monitorOrder, identity.ID)
}

func (r *Room) removeMemberLocked(userID int32) {
	delete(r.users, userID)
	delete(r.ready, userID)
	delete(r.finished, userID)
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Room) removeMonitorLocked(userID int32) {
	delete(r.monitors, userID)
	for i, id := range r.monitorOrder {
		if id == userID {
			r.monitorOrder = append(r.monitorOrder[:i], r.monitorOrder[i+1:]...)
			break
		}
	}
}

func (r *Room) isEmptyLocked() bool { return len(r.users) == 0 }

func (r *Room) isHostLocked(userID int32) bool {
	return r.host != nil && *r.host == userID
}

func (r *Room) memberLocked(userID int32) (*Member, bool) {
	m, ok := r.users[userID]
	return m, ok
}

func (r *Room) monitorLocked(userID int32) (*Member, bool) {
	m, ok := r.monitors[userID]
	return m, ok
}

// snapshotInfoLocked builds the RoomInfo a regular member would see.
func (r *Room) snapshotInfoLocked(forUser int32) protocol.RoomInfo {
	return r.snapshotLocked(forUser, false)
}

// snapshotInfoForMonitorLocked builds the RoomInfo a monitor would see: same
// participant roster, but IsHost/IsReady are always false since monitors
// never hold either role.
func (r *Room) snapshotInfoForMonitorLocked(forUser int32) protocol.RoomInfo {
	return r.snapshotLocked(forUser, true)
}

func (r *Room) snapshotLocked(forUser int32, viewerIsMonitor bool) protocol.RoomInfo {
	participants := make([]protocol.RoomParticipant, 0, len(r.users)+len(r.monitors))
	for _, id := range r.order {
		m := r.users[id]
		participants = append(participants, protocol.RoomParticipant{Profile: m.Identity.Profile(), IsMonitor: false})
	}
	for _, id := range r.monitorOrder {
		m := r.monitors[id]
		participants = append(participants, protocol.RoomParticipant{Profile: m.Identity.Profile(), IsMonitor: true})
	}

	isHost := !viewerIsMonitor && r.isHostLocked(forUser)
	isReady := !viewerIsMonitor && r.ready[forUser]

	return protocol.RoomInfo{
		RoomID:       r.id,
		State:        r.state,
		Live:         r.live,
		Locked:       r.locked,
		Cycle:        r.cycle,
		IsHost:       isHost,
		IsReady:      isReady,
		Participants: participants,
	}
}

// broadcastLocked enqueues f on every member and monitor except excludeUser
// (pass 0 with excludeNone=true to exclude nobody). Enqueue never blocks and
// per-recipient failures never abort the broadcast (§5, §7).
func (r *Room) broadcastLocked(f *protocol.Frame, excludeUser int32, excludeNone bool) {
	for id, m := range r.users {
		if !excludeNone && id == excludeUser {
			continue
		}
		m.Sender.Send(f)
	}
	for id, m := range r.monitors {
		if !excludeNone && id == excludeUser {
			continue
		}
		m.Sender.Send(f)
	}
}

func (r *Room) sendToLocked(userID int32, f *protocol.Frame) {
	if m, ok := r.users[userID]; ok {
		m.Sender.Send(f)
		return
	}
	if m, ok := r.monitors[userID]; ok {
		m.Sender.Send(f)
	}
}

func (r *Room) broadcastMessageLocked(msg protocol.Message, excludeUser int32, excludeNone bool) {
	r.broadcastLocked(protocol.EncodeOutbound(protocol.MessageOut{Message: msg}), excludeUser, excludeNone)
}

func (r *Room) broadcastStateLocked() {
	r.broadcastLocked(protocol.EncodeOutbound(protocol.ChangeStateOut{State: r.state}), 0, true)
}

// readyCountLocked reports how many non-monitor members are currently ready.
func (r *Room) readyCountLocked() int {
	n := 0
	for _, ok := range r.ready {
		if ok {
			n++
		}
	}
	return n
}

// finishedCountLocked reports how many non-monitor members have reported Played.
func (r *Room) finishedCountLocked() int {
	n := 0
	for _, ok := range r.finished {
		if ok {
			n++
		}
	}
	return n
}

// checkReadyQuorumLocked transitions WaitForReady->Playing once every
// non-monitor member is ready (§4.4): clear ready, broadcast
// StartPlayingMessage, transition, then broadcast the new state.
func (r *Room) checkReadyQuorumLocked() {
	if !r.state.IsWaitForReady() {
		return
	}
	if len(r.users) == 0 || r.readyCountLocked() < len(r.users) {
		return
	}
	r.ready = make(map[int32]bool)
	r.broadcastMessageLocked(protocol.StartPlayingMessage{}, 0, true)
	r.state = protocol.NewPlaying()
	r.broadcastStateLocked()
}

// checkFinishQuorumLocked returns the room to SelectChart(null) once every
// non-monitor member has reported Played or Abort (§4.4): broadcast
// GameEndMessage, advance the cycle host if applicable, clear chart,
// transition, broadcast the new state, clear finished.
func (r *Room) checkFinishQuorumLocked() {
	if !r.state.IsPlaying() {
		return
	}
	if len(r.users) == 0 || r.finishedCountLocked() < len(r.users) {
		return
	}

	r.broadcastMessageLocked(protocol.GameEndMessage{}, 0, true)

	if r.cycle && len(r.order) > 0 {
		r.advanceCycleHostLocked()
	}

	r.chart = nil
	r.state = protocol.NewSelectChart(0, false)
	r.broadcastStateLocked()
	r.finished = make(map[int32]bool)
}

// advanceCycleHostLocked moves host to the successor of the current host in
// join order, wrapping around and falling back to the first user if the
// current host already left (§4.4 finish-quorum, §9 cycle rule).
func (r *Room) advanceCycleHostLocked() {
	next := r.order[0]
	if r.host != nil {
		for i, id := range r.order {
			if id == *r.host {
				next = r.order[(i+1)%len(r.order)]
				break
			}
		}
	}
	old := r.host
	r.host = &next
	if old != nil {
		r.sendToLocked(*old, protocol.EncodeOutbound(protocol.ChangeHostOut{IsHost: false}))
	}
	r.sendToLocked(next, protocol.EncodeOutbound(protocol.ChangeHostOut{IsHost: true}))
}
