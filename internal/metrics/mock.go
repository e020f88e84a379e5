package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu               sync.Mutex
	eventsHandled    map[string]int
	eventsSkipped    map[string]int
	eventDurations   []float64
	deliveriesSent   map[string]int
	deliveriesFailed map[string]int
	templateErrors   map[string]int
	startupTime      float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		eventsHandled:    make(map[string]int),
		eventsSkipped:    make(map[string]int),
		eventDurations:   make([]float64, 0),
		deliveriesSent:   make(map[string]int),
		deliveriesFailed: make(map[string]int),
		templateErrors:   make(map[string]int),
	}
}

var _ Metrics = (*Mock)(nil)

func (m *Mock) IncEventsHandled(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsHandled[kind]++
}

func (m *Mock) IncEventsSkipped(kind, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsSkipped[kind+"/"+reason]++
}

func (m *Mock) ObserveEventDuration(kind string, duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventDurations = append(m.eventDurations, duration)
}

func (m *Mock) IncDeliverySent(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveriesSent[channel]++
}

func (m *Mock) IncDeliveryFailed(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveriesFailed[channel]++
}

func (m *Mock) IncTemplateErrors(family string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templateErrors[family]++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// EventsHandled returns how many events of the kind were handled.
func (m *Mock) EventsHandled(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsHandled[kind]
}

// EventsSkipped returns how many events of the kind were skipped for the reason.
func (m *Mock) EventsSkipped(kind, reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsSkipped[kind+"/"+reason]
}

// DeliveriesSent returns the number of successful deliveries on the channel.
func (m *Mock) DeliveriesSent(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deliveriesSent[channel]
}

// DeliveriesFailed returns the number of failed deliveries on the channel.
func (m *Mock) DeliveriesFailed(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deliveriesFailed[channel]
}

// TemplateErrors returns the number of template errors for the family.
func (m *Mock) TemplateErrors(family string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.templateErrors[family]
}

// EventDurations returns the observed processing durations.
func (m *Mock) EventDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.eventDurations...)
}
