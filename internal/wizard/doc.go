// Package wizard implements the episode assembly wizard: a linear step
// machine over a Draft, the upload coordinator that records server
// filenames, and the publish controller that submits an assembly job and
// polls it until a terminal state.
//
// The publish step moves Idle -> Submitting -> Polling -> Done. A rejected
// submission or a failed job returns to Idle with the draft intact. A failed
// status request also returns to Idle but keeps the job id so polling can
// resume. Teardown stops every loop; nothing changes afterwards.
package wizard
