package dungeon

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/world"
	"go.uber.org/zap"
)

// ErrUnknownMechanic is returned for a Mechanic outside the taxonomy.
var ErrUnknownMechanic = errors.New("dungeon: unknown mechanic")

var generics = [mechanicCount]Handler{
	Interrupt:       genericInterrupt,
	GroundAvoidance: genericGroundAvoidance,
	AddPriority:     genericAddPriority,
	Positioning:     genericPositioning,
	Dispel:          genericDispel,
	Movement:        genericMovement,
	TankSwap:        genericTankSwap,
	Spread:          genericSpread,
	Stack:           genericStack,
}

// Generic runs the generic strategy for m. Doing nothing is a valid outcome
// (no caster in range, nothing to dispel, already in position).
func Generic(c *Context, m Mechanic) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMechanic, uint8(m))
	}
	if c.onGeneric != nil {
		c.onGeneric(m)
	}
	return generics[m](c)
}

// 打斷：射程內可打斷的施法，首領優先，其次優先名單，再來最近者
func genericInterrupt(c *Context) error {
	spell := c.Params.Abilities.Interrupt
	if spell == 0 {
		return nil
	}
	var best host.Unit
	found := false
	for _, u := range c.Hostiles(c.Player.Pos, c.Params.InterruptRange) {
		if u.Casting == 0 || !u.Interruptible {
			continue
		}
		if !found || c.castRank(u) < c.castRank(best) ||
			(c.castRank(u) == c.castRank(best) && c.Player.Pos.Dist(u.Pos) < c.Player.Pos.Dist(best.Pos)) {
			best, found = u, true
		}
	}
	if !found {
		return nil
	}
	return c.Cast(spell, best.ID)
}

func (c *Context) castRank(u host.Unit) int {
	switch {
	case u.ID == c.Boss.ID:
		return 0
	case c.isPriority(u.Entry):
		return 1
	default:
		return 2
	}
}

func (c *Context) isPriority(entry uint32) bool {
	for _, e := range c.Params.PriorityEntries {
		if e == entry {
			return true
		}
	}
	return false
}

// 地面效果：站在敵對地面效果內時，移到最近的安全點（需有地面）
func genericGroundAvoidance(c *Context) error {
	effects := c.World.GroundEffects(c.Player.Map, c.Player.Pos, c.Params.ScanRadius)
	hostile := effects[:0:0]
	for _, e := range effects {
		if e.Hostile {
			hostile = append(hostile, e)
		}
	}
	inside := -1
	for i, e := range hostile {
		if c.Player.Pos.Dist2D(e.Pos) < e.Radius {
			inside = i
			break
		}
	}
	if inside < 0 {
		return nil
	}

	unsafe := func(p world.Position) bool {
		for _, e := range hostile {
			if p.Dist2D(e.Pos) < e.Radius+1 {
				return true
			}
		}
		return false
	}

	// Search rings around the player, starting with the bearing that leads
	// straight out of the effect the player stands in.
	from := hostile[inside].Pos
	away := math.Atan2(float64(c.Player.Pos.Y-from.Y), float64(c.Player.Pos.X-from.X))
	if from.Dist2D(c.Player.Pos) == 0 {
		away = 0
	}
	const steps = 16
	for d := float32(2); d <= c.Params.ScanRadius; d += 2 {
		for k := 0; k < steps; k++ {
			// 0, +1, -1, +2, -2 ... sectors from the escape bearing
			off := (k + 1) / 2
			if k%2 == 0 {
				off = -off
			}
			p := c.Player.Pos.Offset(away+float64(off)*2*math.Pi/steps, d)
			if unsafe(p) {
				continue
			}
			if p, ok := c.Walkable(p); ok {
				return c.Move(p)
			}
		}
	}
	c.logger().Debug("找不到安全位置", zap.Stringer("player", c.Player.ID))
	return nil
}

// 小怪優先：優先名單（治療者）先打，其次血量最低，再來最近
func genericAddPriority(c *Context) error {
	if c.Role == host.RoleHealer {
		return nil
	}
	adds := c.Hostiles(c.Player.Pos, c.Params.ScanRadius)
	var best host.Unit
	found := false
	for _, u := range adds {
		if u.ID == c.Boss.ID {
			continue
		}
		if !found || c.addBefore(u, best) {
			best, found = u, true
		}
	}
	if !found || c.Player.Target == best.ID {
		return nil
	}
	return c.Attack(best.ID)
}

func (c *Context) addBefore(a, b host.Unit) bool {
	pa, pb := c.isPriority(a.Entry), c.isPriority(b.Entry)
	if pa != pb {
		return pa
	}
	ha, hb := a.HealthFraction(), b.HealthFraction()
	if ha != hb {
		return ha < hb
	}
	return c.Player.Pos.Dist(a.Pos) < c.Player.Pos.Dist(b.Pos)
}

// 站位：坦克在首領正面，近戰在背後，遠程保持施法距離
func genericPositioning(c *Context) error {
	if !c.HasBoss() {
		return nil
	}
	boss := c.Boss.Pos
	melee := c.Params.MeleeRange
	switch c.Role {
	case host.RoleTank:
		if c.Player.Pos.Dist2D(boss) <= melee {
			return nil
		}
		return c.Move(boss.Toward(c.Player.Pos, melee-1))
	case host.RoleMeleeDPS:
		tank, ok := c.MemberWithRole(host.RoleTank)
		if !ok {
			if c.Player.Pos.Dist2D(boss) <= melee {
				return nil
			}
			return c.Move(boss.Toward(c.Player.Pos, melee-1))
		}
		return c.MoveIfAway(boss.Toward(tank.Pos, -(melee - 1)))
	default:
		d := c.Params.RangedDistance
		if c.Player.Pos.Dist2D(boss) == 0 {
			return c.Move(boss.Offset(math.Pi, d))
		}
		return c.MoveIfAway(boss.Toward(c.Player.Pos, d))
	}
}

// 驅散：隊友身上可驅散的有害光環，血量最低者優先
func genericDispel(c *Context) error {
	ab := c.Params.Abilities
	if ab.Dispel == 0 {
		return nil
	}
	members := c.Members()
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].HealthFraction() < members[j].HealthFraction()
	})
	for _, m := range members {
		for _, a := range m.Auras {
			if a.Harmful && ab.CanDispel(a.Dispel) {
				return c.Cast(ab.Dispel, m.ID)
			}
		}
	}
	return nil
}

// 移動：跟隨坦克，超出牽引距離就靠近
func genericMovement(c *Context) error {
	if c.Role == host.RoleTank {
		return nil
	}
	anchor, ok := c.MemberWithRole(host.RoleTank)
	if !ok {
		if c.Group.Leader.IsEmpty() || c.Group.Leader == c.Player.ID {
			return nil
		}
		if anchor, ok = c.World.Unit(c.Group.Leader); !ok {
			return nil
		}
	}
	if c.Player.Pos.Dist(anchor.Pos) <= c.Params.Leash {
		return nil
	}
	return c.Move(anchor.Pos.Toward(c.Player.Pos, c.Params.Leash/2))
}

// 換坦：當前坦克疊層達門檻且自己未達門檻時嘲諷
func genericTankSwap(c *Context) error {
	p := c.Params
	if c.Role != host.RoleTank || p.Abilities.Taunt == 0 || p.SwapAura == 0 || !c.HasBoss() {
		return nil
	}
	cur := c.Boss.Target
	if cur.IsEmpty() || cur == c.Player.ID {
		return nil
	}
	tank, ok := c.World.Unit(cur)
	if !ok {
		return nil
	}
	if tank.AuraStacks(p.SwapAura) < p.SwapStacks || c.Player.AuraStacks(p.SwapAura) >= p.SwapStacks {
		return nil
	}
	return c.Cast(p.Abilities.Taunt, c.Boss.ID)
}

// SpreadRadius is the ring radius that keeps n players spread evenly around
// a center at least spread yards apart.
func SpreadRadius(n int, spread float32) float32 {
	if n < 2 {
		return 0
	}
	return spread / float32(2*math.Sin(math.Pi/float64(n)))
}

// 分散：所有成員平均分佈在首領（或隊伍中心）周圍的圓上
func genericSpread(c *Context) error {
	members := c.Members()
	if len(members) < 2 {
		return nil
	}
	slot := -1
	for i, m := range members {
		if m.ID == c.Player.ID {
			slot = i
			break
		}
	}
	if slot < 0 {
		return nil
	}
	center := centroid(members)
	if c.HasBoss() {
		center = c.Boss.Pos
	}
	r := SpreadRadius(len(members), c.Params.SpreadDistance)
	angle := 2 * math.Pi * float64(slot) / float64(len(members))
	for try := 0; try < 3; try++ {
		p := center.Offset(angle, r+float32(try)*c.Params.SpreadDistance)
		if p, ok := c.Walkable(p); ok {
			return c.MoveIfAway(p)
		}
	}
	return nil
}

func centroid(units []host.Unit) world.Position {
	var x, y, z float32
	for _, u := range units {
		x += u.Pos.X
		y += u.Pos.Y
		z += u.Pos.Z
	}
	n := float32(len(units))
	return world.Position{X: x / n, Y: y / n, Z: z / n}
}

// 集合：集合到被團隊標記的隊友，否則治療者，否則坦克
func genericStack(c *Context) error {
	point, ok := c.stackPoint()
	if !ok || point.ID == c.Player.ID {
		return nil
	}
	if c.Player.Pos.Dist(point.Pos) <= c.Params.StackRadius {
		return nil
	}
	return c.Move(point.Pos.Toward(c.Player.Pos, 1))
}

func (c *Context) stackPoint() (host.Unit, bool) {
	for _, id := range c.Group.Icons {
		if id.IsEmpty() {
			continue
		}
		if _, member := c.Group.Member(id); !member {
			continue
		}
		if id == c.Player.ID {
			return c.Player, true
		}
		if u, ok := c.World.Unit(id); ok && u.Alive {
			return u, true
		}
	}
	if u, ok := c.MemberWithRole(host.RoleHealer); ok {
		return u, true
	}
	return c.MemberWithRole(host.RoleTank)
}
