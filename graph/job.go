package graph

import "github.com/llGuy/nezha/driver"

// Job is a recorded, possibly submitted unit of work: a command
// buffer plus its finished-semaphore. It is a small value type
// that references a submission slot by index once submitted;
// Clone and Drop adjust that slot's reference count rather than
// the job owning anything itself.
type Job struct {
	g             *Graph
	cmdBuf        driver.CmdBuffer
	finishedSem   driver.Semaphore
	lastStage     driver.Sync
	submissionIdx int // -1 when unsubmitted or released
}

// Clone returns a copy of j that shares its submission slot,
// incrementing the slot's reference count if j has been
// submitted.
func (j Job) Clone() Job {
	if j.submissionIdx >= 0 {
		j.g.syncPool.submissions[j.submissionIdx].refCount++
	}
	return j
}

// Drop releases j's claim on its submission slot, if any. After
// Drop, j must not be used again.
func (j *Job) Drop() {
	if j.submissionIdx >= 0 {
		j.g.syncPool.decRef(j.submissionIdx)
		j.submissionIdx = -1
	}
}

// PendingWorkload is a once-awaitable handle to a submission's
// fence, returned by Graph.Submit.
type PendingWorkload struct {
	g             *Graph
	fence         driver.Fence
	submissionIdx int
}

// Wait blocks until the submission's fence is signaled, then
// releases this workload's claim on the submission slot. Wait is
// infinite: a device that never completes is an unrecoverable
// condition, not one the caller can time out of.
func (p *PendingWorkload) Wait() {
	if err := p.fence.Wait(); err != nil {
		abort("wait", err)
	}
	p.g.syncPool.decRef(p.submissionIdx)
	p.submissionIdx = -1
}
