package playback

const eventBufferSize = 16

// Subscription delivers controller events. Every channel is buffered and an
// event for a full channel is dropped, so a slow subscriber never stalls
// playback. Done is closed when the controller closes.
type Subscription struct {
	StateChanged    <-chan StateChange
	TrackChanged    <-chan TrackChange
	PositionChanged <-chan PositionChange
	QueueChanged    <-chan QueueChange
	VolumeChanged   <-chan VolumeChange
	Error           <-chan ErrorEvent
	Done            <-chan struct{}

	out outbox
}

// outbox holds the send sides of a Subscription.
type outbox struct {
	state    chan StateChange
	track    chan TrackChange
	position chan PositionChange
	queue    chan QueueChange
	volume   chan VolumeChange
	err      chan ErrorEvent
	done     chan struct{}
}

func newSubscription() *Subscription {
	o := outbox{
		state:    make(chan StateChange, eventBufferSize),
		track:    make(chan TrackChange, eventBufferSize),
		position: make(chan PositionChange, eventBufferSize),
		queue:    make(chan QueueChange, eventBufferSize),
		volume:   make(chan VolumeChange, eventBufferSize),
		err:      make(chan ErrorEvent, eventBufferSize),
		done:     make(chan struct{}),
	}
	return &Subscription{
		StateChanged:    o.state,
		TrackChanged:    o.track,
		PositionChanged: o.position,
		QueueChanged:    o.queue,
		VolumeChanged:   o.volume,
		Error:           o.err,
		Done:            o.done,
		out:             o,
	}
}

func (s *Subscription) close() { close(s.out.done) }

// Channel selectors for broadcast.
func stateOut(o *outbox) chan StateChange       { return o.state }
func trackOut(o *outbox) chan TrackChange       { return o.track }
func positionOut(o *outbox) chan PositionChange { return o.position }
func queueOut(o *outbox) chan QueueChange       { return o.queue }
func volumeOut(o *outbox) chan VolumeChange     { return o.volume }
func errorOut(o *outbox) chan ErrorEvent        { return o.err }

// broadcast offers e to every subscriber on the channel pick selects and
// returns how many subscribers missed it.
func broadcast[E any](subs []*Subscription, pick func(*outbox) chan E, e E) (dropped int) {
	for _, s := range subs {
		select {
		case pick(&s.out) <- e:
		default:
			dropped++
		}
	}
	return dropped
}
