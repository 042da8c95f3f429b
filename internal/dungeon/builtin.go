package dungeon

import (
	"sync"

	"github.com/l1jgo/playerbot/internal/core/ident"
)

// Creature entries and spells the built-in scripts know about.
const (
	MapDeadmines       uint32 = 36
	MapWailingCaverns  uint32 = 43
	EntryVanCleef      uint32 = 639
	EntryMrSmite       uint32 = 646
	EntryBlackguard    uint32 = 636
	EntrySquallshaper  uint32 = 1732
	EntryDruidOfFang   uint32 = 3840
	SpellSmiteStomp    uint32 = 6432
	smiteStompDistance        = 12
)

// progress tracks which bosses of an instance are down and who is inside.
type progress struct {
	mu      sync.Mutex
	killed  map[uint32]bool
	players map[ident.EntityID]bool
}

func (p *progress) enter(id ident.EntityID) {
	p.mu.Lock()
	if p.players == nil {
		p.players = make(map[ident.EntityID]bool)
	}
	p.players[id] = true
	p.mu.Unlock()
}

// exit forgets the kills once the last player leaves.
func (p *progress) exit(id ident.EntityID) {
	p.mu.Lock()
	delete(p.players, id)
	if len(p.players) == 0 {
		clear(p.killed)
	}
	p.mu.Unlock()
}

func (p *progress) kill(entry uint32) {
	p.mu.Lock()
	if p.killed == nil {
		p.killed = make(map[uint32]bool)
	}
	p.killed[entry] = true
	p.mu.Unlock()
}

func (p *progress) Killed(entry uint32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed[entry]
}

func (p *progress) Players() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.players)
}

// Deadmines 死亡礦坑：地圖腳本不覆寫任何機制，只調整小怪優先名單
type Deadmines struct {
	BaseScript
	progress
}

func NewDeadmines() *Deadmines {
	s := &Deadmines{BaseScript: NewBaseScript("deadmines", MapDeadmines)}
	s.Tune = func(p *Params) {
		p.PriorityEntries = append(p.PriorityEntries, EntrySquallshaper)
	}
	return s
}

func (s *Deadmines) OnDungeonEnter(player ident.EntityID, _ uint32) { s.enter(player) }
func (s *Deadmines) OnDungeonExit(player ident.EntityID, _ uint32)  { s.exit(player) }
func (s *Deadmines) OnBossKill(e Encounter)                         { s.kill(e.Entry) }

// VanCleef 艾德溫·范克里夫：召喚的黑衛士優先擊殺
type VanCleef struct {
	BaseScript
	engaged int
}

func NewVanCleef() *VanCleef {
	s := &VanCleef{BaseScript: NewBaseScript("boss_edwin_vancleef", 0, EntryVanCleef)}
	s.Override(AddPriority, func(c *Context) error {
		c.Params.PriorityEntries = append(c.Params.PriorityEntries, EntryBlackguard)
		return genericAddPriority(c)
	})
	return s
}

func (s *VanCleef) OnBossEngage(Encounter) { s.engaged++ }

// Engagements counts pulls of the boss, wipes included.
func (s *VanCleef) Engagements() int { return s.engaged }

// MrSmite 重錘先生：踐踏時近戰退出範圍，其餘照一般站位
type MrSmite struct {
	BaseScript
}

func NewMrSmite() *MrSmite {
	s := &MrSmite{BaseScript: NewBaseScript("boss_mr_smite", 0, EntryMrSmite)}
	s.Override(Positioning, func(c *Context) error {
		if c.HasBoss() && c.Boss.Casting == SpellSmiteStomp && c.Player.Pos.Dist2D(c.Boss.Pos) < smiteStompDistance {
			return c.Move(c.Boss.Pos.Toward(c.Player.Pos, smiteStompDistance+1))
		}
		return genericPositioning(c)
	})
	return s
}

// WailingCaverns 哀嚎洞穴：只有地圖腳本，洞穴狹窄所以縮短牽引距離
type WailingCaverns struct {
	BaseScript
	progress
}

func NewWailingCaverns() *WailingCaverns {
	s := &WailingCaverns{BaseScript: NewBaseScript("wailing_caverns", MapWailingCaverns)}
	s.Tune = func(p *Params) {
		p.Leash = 15
		p.PriorityEntries = append(p.PriorityEntries, EntryDruidOfFang)
	}
	return s
}

func (s *WailingCaverns) OnDungeonEnter(player ident.EntityID, _ uint32) { s.enter(player) }
func (s *WailingCaverns) OnDungeonExit(player ident.EntityID, _ uint32)  { s.exit(player) }
func (s *WailingCaverns) OnBossKill(e Encounter)                         { s.kill(e.Entry) }

// RegisterBuiltins registers the scripts compiled into the binary.
func RegisterBuiltins(r *Registry) error {
	for _, s := range []Script{NewDeadmines(), NewVanCleef(), NewMrSmite(), NewWailingCaverns()} {
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}
