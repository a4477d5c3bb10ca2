// Package alarm turns a parsed notification request into a response status.
//
// A request must be a POST carrying "Content-Type: application/json" and a
// JSON body. A body of {"state":"alerting"} sounds the buzzer before the
// response is returned; any other state is accepted silently:
//
//	d := alarm.NewDispatcher(bz, alarm.WithLogger(log))
//	code := d.Dispatch(ctx, req)
//	_ = wire.Send(conn, code)
package alarm
