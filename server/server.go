// server/server.go
package server

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/rpc"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/idlerpg/achievements"
	"github.com/wfunc/idlerpg/broadcast"
	"github.com/wfunc/idlerpg/config"
	"github.com/wfunc/idlerpg/content"
	"github.com/wfunc/idlerpg/engine"
	"github.com/wfunc/idlerpg/logger"
	"github.com/wfunc/idlerpg/models"
	"github.com/wfunc/idlerpg/monitor"
	"github.com/wfunc/idlerpg/network"
	"github.com/wfunc/idlerpg/persistence"
	idlerpg_rpc "github.com/wfunc/idlerpg/rpc"
	"github.com/wfunc/idlerpg/services"
	"github.com/wfunc/idlerpg/session"
	"github.com/wfunc/idlerpg/timer"
)

type GameServer struct {
	addr           string
	cfg            config.GameConfig
	upgrader       websocket.Upgrader
	sessionManager *session.Manager
	playerService  *services.PlayerService
	broadcaster    broadcast.Broadcaster
	rpcServer      *idlerpg_rpc.Server
	timers         *timer.TimerManager
	monitor        *monitor.Monitor
	store          persistence.Store
	shutdownChan   chan struct{}
}

func newServerRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func NewGameServer(addr, rpcAddr string, cfg config.GameConfig, store persistence.Store, mon *monitor.Monitor) *GameServer {
	gen := content.NewRandGenerator(newServerRand())
	eval := achievements.NewThresholdEvaluator()

	s := &GameServer{
		addr:           addr,
		cfg:            cfg,
		sessionManager: session.NewManager(store, cfg, gen, eval),
		playerService:  services.NewPlayerService(store),
		timers:         timer.NewTimerManager(),
		monitor:        mon,
		store:          store,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.broadcaster = broadcast.NewSessionBroadcaster(s.sessionManager)

	rpcServer, err := idlerpg_rpc.NewServer(rpcAddr)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	rpc.Register(idlerpg_rpc.NewAdminService(s.playerService))

	// Autosave every live session on the configured cadence.
	s.timers.AddTimer(cfg.AutosaveInterval, cfg.AutosaveInterval, s.autosave)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
	for _, sess := range s.sessionManager.All() {
		s.sessionManager.Close(sess)
	}
}

// autosave persists every attached session's snapshot.
func (s *GameServer) autosave() {
	for _, sess := range s.sessionManager.All() {
		if sess.PlayerID == "" {
			continue
		}
		playerID := sess.PlayerID
		sess.WithEngine(func(eng *engine.Engine) {
			eng.State().LastSave = time.Now()
			if err := s.store.SaveSnapshot(playerID, eng.State()); err != nil {
				logger.Log.Errorf("Autosave failed for %s: %v", playerID, err)
				return
			}
			s.monitor.IncSavesWritten()
		})
	}
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	wsConn := network.NewWSConnection(conn)
	sess := s.sessionManager.Open(wsConn)
	s.monitor.IncOnlinePlayers()
	logger.Log.Infof("Session %s connected from %s", sess.ID, wsConn.RemoteAddr())

	go s.readLoop(sess)
}

func (s *GameServer) readLoop(sess *session.Session) {
	defer func() {
		s.sessionManager.Close(sess)
		s.monitor.DecOnlinePlayers()
		logger.Log.Infof("Session %s disconnected", sess.ID)
	}()

	for {
		packet, err := sess.Conn.ReadPacket()
		if err != nil {
			return
		}

		start := time.Now()
		s.dispatch(sess, packet)
		s.monitor.ObserveTransitionLatency(time.Since(start))
	}
}

type loginPayload struct {
	PlayerID string `json:"player_id"`
}

type idPayload struct {
	ID string `json:"id"`
}

type bulkPayload struct {
	IDs  []string        `json:"ids"`
	Kind models.ItemKind `json:"kind"`
}

type costPayload struct {
	Cost int64 `json:"cost"`
}

type answerPayload struct {
	Correct  bool   `json:"correct"`
	Category string `json:"category"`
}

type skillPayload struct {
	Skill models.SkillType `json:"skill"`
}

type minePayload struct {
	Coord int `json:"coord"`
}

type amountPayload struct {
	Amount int64 `json:"amount"`
}

type hoursPayload struct {
	Hours float64 `json:"hours"`
}

type modePayload struct {
	Mode models.GameMode `json:"mode"`
}

type actionReply struct {
	MsgID  uint16      `json:"msg_id"`
	OK     bool        `json:"ok"`
	Result interface{} `json:"result,omitempty"`
}

// dispatch routes one packet to the session's engine.
func (s *GameServer) dispatch(sess *session.Session, packet *network.Packet) {
	if packet.MsgID == network.MsgTypeHeartbeat {
		sess.Send(network.MsgTypeHeartbeat, nil)
		return
	}

	if packet.MsgID == network.MsgTypeLogin {
		s.handleLogin(sess, packet.Data)
		return
	}

	if sess.Engine == nil {
		s.reply(sess, packet.MsgID, false, "not logged in")
		return
	}

	var ok bool
	var result interface{}

	sess.WithEngine(func(eng *engine.Engine) {
		ok, result = s.apply(sess.PlayerID, eng, packet)
	})
	s.reply(sess, packet.MsgID, ok, result)
	s.syncState(sess)
}

// apply maps wire actions onto engine transitions.
func (s *GameServer) apply(playerID string, eng *engine.Engine, packet *network.Packet) (bool, interface{}) {
	switch packet.MsgID {
	case network.MsgTypeEquipWeapon:
		var p idPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		return eng.EquipWeapon(p.ID), nil

	case network.MsgTypeEquipArmor:
		var p idPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		return eng.EquipArmor(p.ID), nil

	case network.MsgTypeUpgradeItem:
		var p idPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		if eng.UpgradeWeapon(p.ID) || eng.UpgradeArmor(p.ID) {
			return true, nil
		}
		return false, nil

	case network.MsgTypeSellItem:
		var p idPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		if eng.SellWeapon(p.ID) || eng.SellArmor(p.ID) {
			return true, nil
		}
		return false, nil

	case network.MsgTypeBulkSell:
		var p bulkPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		return true, eng.BulkSell(p.IDs, p.Kind)

	case network.MsgTypeBulkUpgrade:
		var p bulkPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		return true, eng.BulkUpgrade(p.IDs, p.Kind)

	case network.MsgTypeOpenChest:
		var p costPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		outcome := eng.OpenChest(p.Cost)
		if outcome == nil {
			return false, nil
		}
		s.monitor.IncChestsOpened()
		return true, outcome

	case network.MsgTypePurchaseMythical:
		var p costPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		return eng.PurchaseMythical(p.Cost), nil

	case network.MsgTypeBeginEncounter:
		if !eng.BeginEncounter() {
			return false, nil
		}
		s.monitor.IncEncountersStarted()
		return true, eng.State().Combat

	case network.MsgTypeAnswer:
		var p answerPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		res, ok := eng.Answer(p.Correct, p.Category)
		if !ok {
			return false, nil
		}
		if res.Victory {
			s.monitor.IncVictories()
		}
		if res.Defeat {
			s.monitor.IncDefeats()
			s.recordMilestone(playerID, "defeat", map[string]interface{}{
				"zone": eng.State().Zone,
			})
		}
		return true, res

	case network.MsgTypeSelectSkill:
		var p skillPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		return eng.SelectAdventureSkill(p.Skill), nil

	case network.MsgTypeSkipSkills:
		eng.SkipAdventureSkills()
		return true, nil

	case network.MsgTypeEquipRelic:
		var p idPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		return eng.EquipRelic(p.ID), nil

	case network.MsgTypeUnequipRelic:
		var p idPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		return eng.UnequipRelic(p.ID), nil

	case network.MsgTypeUpgradeRelic:
		var p idPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		return eng.UpgradeRelic(p.ID), nil

	case network.MsgTypeSellRelic:
		var p idPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		return eng.SellRelic(p.ID), nil

	case network.MsgTypePurchaseRelic:
		var p idPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		return eng.PurchaseRelic(p.ID), nil

	case network.MsgTypeMineGem:
		var p minePayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		return true, eng.MineGem(p.Coord)

	case network.MsgTypeExchangeShiny:
		var p amountPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		return eng.ExchangeShinyGems(p.Amount), nil

	case network.MsgTypeRollBuff:
		return eng.RollBuff(), eng.State().Buff

	case network.MsgTypeClaimDaily:
		return eng.ClaimDailyReward(), nil

	case network.MsgTypeClaimOffline:
		return true, eng.ClaimOfflineRewards()

	case network.MsgTypePlantSeed:
		return eng.PlantSeed(), nil

	case network.MsgTypeBuyWater:
		var p hoursPayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		return eng.BuyWater(p.Hours), nil

	case network.MsgTypeSetMode:
		var p modePayload
		if json.Unmarshal(packet.Data, &p) != nil {
			return false, nil
		}
		return eng.SetGameMode(p.Mode), nil

	case network.MsgTypePrestige:
		zone := eng.State().Zone
		if !eng.Prestige() {
			return false, nil
		}
		s.recordMilestone(playerID, "prestige", map[string]interface{}{
			"zone":      zone,
			"prestiges": eng.State().Stats.Prestiges,
		})
		return true, nil

	case network.MsgTypeResetGame:
		eng.ResetGame()
		return true, nil
	}

	return false, nil
}

// recordMilestone appends a progress row for the admin surface. Milestone
// writes never fail a transition.
func (s *GameServer) recordMilestone(playerID, kind string, detail map[string]interface{}) {
	if err := s.playerService.RecordMilestone(playerID, kind, detail); err != nil {
		logger.Log.Warnf("Failed to record %s milestone for %s: %v", kind, playerID, err)
	}
}

func (s *GameServer) handleLogin(sess *session.Session, data []byte) {
	var p loginPayload
	if err := json.Unmarshal(data, &p); err != nil || p.PlayerID == "" {
		s.reply(sess, network.MsgTypeLogin, false, nil)
		return
	}

	s.sessionManager.Attach(sess, p.PlayerID)
	s.monitor.IncReconcileRuns()

	playerID := p.PlayerID
	sess.WithEngine(func(eng *engine.Engine) {
		eng.SetUnlockHandler(func(a achievements.Achievement) {
			data, err := json.Marshal(a)
			if err != nil {
				return
			}
			s.broadcaster.PushToPlayer(playerID, network.MsgTypeUnlock, data)
		})
	})

	s.reply(sess, network.MsgTypeLogin, true, nil)
	s.syncState(sess)
}

func (s *GameServer) reply(sess *session.Session, msgID uint16, ok bool, result interface{}) {
	data, err := json.Marshal(actionReply{MsgID: msgID, OK: ok, Result: result})
	if err != nil {
		logger.Log.Errorf("Failed to marshal reply: %v", err)
		return
	}
	sess.Send(network.MsgTypeActionReply, data)
}

// syncState pushes the full snapshot to every live session of the player.
func (s *GameServer) syncState(sess *session.Session) {
	if sess.Engine == nil {
		return
	}
	var data []byte
	var err error
	sess.WithEngine(func(eng *engine.Engine) {
		data, err = json.Marshal(eng.State())
	})
	if err != nil {
		logger.Log.Errorf("Failed to marshal state sync: %v", err)
		return
	}
	s.broadcaster.PushToPlayer(sess.PlayerID, network.MsgTypeStateSync, data)
}
