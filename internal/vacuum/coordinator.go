package vacuum

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"zones2mqtt/internal/hass"
	"zones2mqtt/internal/log"
)

// Config holds the coordinator settings for one physical vacuum.
type Config struct {
	// EntityID of the physical vacuum in Home Assistant.
	EntityID string
	// EntityPrefix is the object id prefix of the vacuum's select and switch
	// entities, e.g. "x40_ultra_complete".
	EntityPrefix string
	// Platform overrides the registry lookup for the segment clean service
	// domain. Empty means resolve lazily on first dispatch.
	Platform string
	// StartDelay is the debounce window. Zero means start requests execute
	// synchronously with no timer.
	StartDelay time.Duration
	// TestMode skips the physical stop/start/segment calls. Selector and
	// switch configuration calls still fire so that orchestration remains
	// observable.
	TestMode bool
}

// Coordinator is the per-vacuum batching engine. Zone start requests are
// collected into a queue, debounced, merged into one plan and dispatched as a
// single physical command sequence.
type Coordinator struct {
	cfg Config
	ha  HomeAssistant
	log *log.Logger

	mu           sync.Mutex
	queue        []*Zone
	timer        *time.Timer
	timerGen     uint64
	inFlight     bool
	platform     string
	listeners    map[int]func()
	nextListener int
}

func NewCoordinator(cfg Config, ha HomeAssistant, logger *log.Logger) *Coordinator {
	return &Coordinator{
		cfg:       cfg,
		ha:        ha,
		log:       logger,
		platform:  cfg.Platform,
		listeners: make(map[int]func()),
	}
}

// Schedule queues a zone for the next batch. In debounce mode any pending
// window is restarted from zero; with a zero start delay the batch executes
// synchronously before Schedule returns. A zone that is already queued is
// ignored.
func (c *Coordinator) Schedule(z *Zone) {
	c.mu.Lock()
	if c.indexOfLocked(z) >= 0 {
		c.mu.Unlock()
		c.log.Debug("Zone %s is already queued, ignoring", z.Name)
		return
	}
	c.queue = append(c.queue, z)
	pending := len(c.queue)

	if c.cfg.StartDelay == 0 {
		run := !c.inFlight
		if run {
			c.inFlight = true
		}
		c.mu.Unlock()
		c.log.Debug("Zone %s queued, %d pending", z.Name, pending)
		c.notify()
		if run {
			c.runBatches()
		}
		return
	}

	c.armTimerLocked()
	c.mu.Unlock()
	c.log.Debug("Zone %s queued, %d pending, cleaning in %s", z.Name, pending, c.cfg.StartDelay)
	c.notify()
}

// Remove withdraws a zone from the queue. Removing the last zone cancels the
// debounce timer; removing from a non-empty queue restarts the window when
// restartTimer is set.
func (c *Coordinator) Remove(z *Zone, restartTimer bool) {
	c.mu.Lock()
	i := c.indexOfLocked(z)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue[:i], c.queue[i+1:]...)
	pending := len(c.queue)
	if pending == 0 {
		c.cancelTimerLocked()
	} else if restartTimer && c.cfg.StartDelay > 0 {
		c.armTimerLocked()
	}
	c.mu.Unlock()
	c.log.Debug("Zone %s removed, %d pending", z.Name, pending)
	c.notify()
}

// AddListener registers a callback invoked synchronously after every state
// change. The returned function unregisters it.
func (c *Coordinator) AddListener(fn func()) func() {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Pending returns the number of queued zones.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// TimerArmed reports whether a debounce timer is currently pending.
func (c *Coordinator) TimerArmed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

// ResolvedPlatform returns the segment clean service domain once it has been
// resolved, or the empty string.
func (c *Coordinator) ResolvedPlatform() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.platform
}

func (c *Coordinator) indexOfLocked(z *Zone) int {
	for i, queued := range c.queue {
		if queued == z {
			return i
		}
	}
	return -1
}

// armTimerLocked supersedes any running timer with a fresh one. A superseded
// timer that already fired is recognized by its stale generation and does
// nothing.
func (c *Coordinator) armTimerLocked() {
	c.timerGen++
	gen := c.timerGen
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.cfg.StartDelay, func() {
		c.fireTimer(gen)
	})
}

func (c *Coordinator) cancelTimerLocked() {
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) fireTimer(gen uint64) {
	c.mu.Lock()
	if gen != c.timerGen {
		// Superseded while already firing.
		c.mu.Unlock()
		return
	}
	c.timer = nil
	if c.inFlight {
		// A batch is dispatching; its cleanup re-arms for the zones that
		// arrived meanwhile.
		c.mu.Unlock()
		return
	}
	c.inFlight = true
	c.mu.Unlock()
	c.runBatches()
}

func (c *Coordinator) notify() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// runBatches executes batches until the queue is drained (immediate mode) or
// one batch has run (debounce mode, where later arrivals wait for their own
// window). The caller must have claimed the inFlight flag.
func (c *Coordinator) runBatches() {
	for {
		batch := c.takeSnapshot()
		if batch == nil {
			return
		}
		c.notify()
		if err := c.dispatch(batch); err != nil {
			c.log.Error("Batch abandoned: %v", err)
		}
		settled := c.finishBatch(batch)
		for _, z := range settled {
			z.settle()
		}
		c.notify()
		if c.cfg.StartDelay > 0 {
			c.endRun()
			return
		}
	}
}

func (c *Coordinator) takeSnapshot() []*Zone {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		c.inFlight = false
		c.cancelTimerLocked()
		return nil
	}
	return append([]*Zone(nil), c.queue...)
}

// finishBatch removes the batch's zones from the queue, whatever the dispatch
// outcome. Zones scheduled while the batch was dispatching are not part of the
// snapshot and stay queued for the next window.
func (c *Coordinator) finishBatch(batch []*Zone) []*Zone {
	c.mu.Lock()
	defer c.mu.Unlock()
	settled := make([]*Zone, 0, len(batch))
	for _, z := range batch {
		if i := c.indexOfLocked(z); i >= 0 {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			settled = append(settled, z)
		}
	}
	if len(c.queue) == 0 {
		c.cancelTimerLocked()
	}
	return settled
}

func (c *Coordinator) endRun() {
	c.mu.Lock()
	c.inFlight = false
	if len(c.queue) > 0 && c.timer == nil {
		// The timer for late arrivals fired into the in-flight batch.
		c.armTimerLocked()
	}
	c.mu.Unlock()
}

func (c *Coordinator) dispatch(batch []*Zone) error {
	c.log.Info("Dispatching batch of %d zone(s)", len(batch))

	state, err := c.ha.State(c.cfg.EntityID)
	if err != nil {
		return fmt.Errorf("failed to read vacuum state: %v", err)
	}

	if state.State == StateCleaning {
		c.log.Info("Vacuum is busy, stopping the current run first")
		if c.cfg.TestMode {
			c.log.Info("Test mode: skipping vacuum.stop")
		} else if err := c.ha.Call("vacuum", "stop", c.serviceData(nil)); err != nil {
			return fmt.Errorf("failed to stop vacuum: %v", err)
		}
	}

	plan := ResolvePlan(batch, roomSequence(state), c.log)
	if err := c.configure(plan); err != nil {
		return err
	}
	return c.start(plan)
}

func (c *Coordinator) configure(plan Plan) error {
	if plan.Custom {
		if err := c.setSwitch("customized_cleaning", true); err != nil {
			return err
		}
		if err := c.setSelect("cleangenius", "off"); err != nil {
			return err
		}
		for _, room := range plan.Rooms {
			mode := plan.RoomModes[room]
			if err := c.setSelect(fmt.Sprintf("room_%d_cleaning_mode", room), mode.RoomSetting()); err != nil {
				return err
			}
			if err := c.setSelect(fmt.Sprintf("room_%d_cleaning_times", room), mode.Repeats()); err != nil {
				return err
			}
		}
		return nil
	}

	if err := c.setSwitch("customized_cleaning", false); err != nil {
		return err
	}
	if plan.Mode.CleanGenius() {
		if err := c.setSelect("cleangenius", plan.Mode.String()); err != nil {
			return err
		}
		return c.setSelect("cleangenius_mode", "vacuum_and_mop")
	}
	if err := c.setSelect("cleangenius", "off"); err != nil {
		return err
	}
	return c.setSelect("cleaning_mode", plan.Mode.String())
}

func (c *Coordinator) start(plan Plan) error {
	if plan.AllRooms {
		c.log.Info("All rooms requested, starting a full clean")
		if c.cfg.TestMode {
			c.log.Info("Test mode: skipping vacuum.start")
			return nil
		}
		if err := c.ha.Call("vacuum", "start", c.serviceData(nil)); err != nil {
			return fmt.Errorf("failed to start vacuum: %v", err)
		}
		return nil
	}

	platform := c.platformFor()
	c.log.Info("Starting segment clean of rooms %v via %s", plan.Rooms, platform)
	if c.cfg.TestMode {
		c.log.Info("Test mode: skipping %s.vacuum_clean_segment", platform)
		return nil
	}
	data := c.serviceData(map[string]interface{}{"segments": plan.Rooms})
	if err := c.ha.Call(platform, "vacuum_clean_segment", data); err != nil {
		return fmt.Errorf("failed to start segment clean: %v", err)
	}
	return nil
}

func (c *Coordinator) platformFor() string {
	c.mu.Lock()
	if c.platform != "" {
		platform := c.platform
		c.mu.Unlock()
		return platform
	}
	c.mu.Unlock()

	platform, err := c.ha.Platform(c.cfg.EntityID)
	if err != nil {
		c.log.Warning("Failed to resolve vacuum platform, falling back to %s: %v", DefaultPlatform, err)
		platform = DefaultPlatform
	}

	c.mu.Lock()
	c.platform = platform
	c.mu.Unlock()
	return platform
}

func (c *Coordinator) setSelect(name, option string) error {
	entityID := fmt.Sprintf("select.%s_%s", c.cfg.EntityPrefix, name)
	err := c.ha.Call("select", "select_option", map[string]interface{}{
		"entity_id": entityID,
		"option":    option,
	})
	if errors.Is(err, hass.ErrNotFound) {
		c.log.Warning("Selector %s not available, skipping", entityID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to set %s to %s: %v", entityID, option, err)
	}
	c.log.Debug("Set %s to %s", entityID, option)
	return nil
}

func (c *Coordinator) setSwitch(name string, on bool) error {
	entityID := fmt.Sprintf("switch.%s_%s", c.cfg.EntityPrefix, name)
	service := "turn_off"
	if on {
		service = "turn_on"
	}
	err := c.ha.Call("switch", service, map[string]interface{}{"entity_id": entityID})
	if errors.Is(err, hass.ErrNotFound) {
		c.log.Warning("Switch %s not available, skipping", entityID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to %s %s: %v", service, entityID, err)
	}
	c.log.Debug("Switch %s: %s", entityID, service)
	return nil
}

func (c *Coordinator) serviceData(extra map[string]interface{}) map[string]interface{} {
	data := map[string]interface{}{"entity_id": c.cfg.EntityID}
	for k, v := range extra {
		data[k] = v
	}
	return data
}
