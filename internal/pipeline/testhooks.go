package pipeline

// beforeRecordPush runs in a filter worker after a record is encoded and
// before it is pushed to the writers.
var beforeRecordPush = func(worker int) {}

// SetBeforeRecordPushForTests swaps the pre-push hook and returns a restore func.
func SetBeforeRecordPushForTests(fn func(worker int)) func() {
	previous := beforeRecordPush
	if fn == nil {
		fn = func(int) {}
	}
	beforeRecordPush = fn
	return func() {
		beforeRecordPush = previous
	}
}
