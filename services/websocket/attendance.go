package websocket

import "sams_go/services"

// BroadcastAttendance publishes a check-in/check-out event to every feed
// subscriber. Satisfies services.AttendanceBroadcaster.
func (h *Hub) BroadcastAttendance(event services.AttendanceEvent) {
	h.Broadcast(map[string]interface{}{
		"type": "attendance",
		"data": event,
	})
}
