// network/protocol.go
package network

const (
	MsgTypeHeartbeat = 1
	MsgTypeLogin     = 2

	// Equipment and economy actions
	MsgTypeEquipWeapon      = 101
	MsgTypeEquipArmor       = 102
	MsgTypeUpgradeItem      = 103
	MsgTypeSellItem         = 104
	MsgTypeBulkSell         = 105
	MsgTypeBulkUpgrade      = 106
	MsgTypeOpenChest        = 107
	MsgTypePurchaseMythical = 108

	// Combat actions
	MsgTypeBeginEncounter = 201
	MsgTypeAnswer         = 202
	MsgTypeSelectSkill    = 203
	MsgTypeSkipSkills     = 204

	// Relic actions
	MsgTypeEquipRelic    = 211
	MsgTypeUnequipRelic  = 212
	MsgTypeUpgradeRelic  = 213
	MsgTypeSellRelic     = 214
	MsgTypePurchaseRelic = 215

	// Gems, buffs, timed systems
	MsgTypeMineGem       = 221
	MsgTypeExchangeShiny = 222
	MsgTypeRollBuff      = 223
	MsgTypeClaimDaily    = 224
	MsgTypeClaimOffline  = 225
	MsgTypePlantSeed     = 226
	MsgTypeBuyWater      = 227

	// Meta actions
	MsgTypeSetMode   = 231
	MsgTypePrestige  = 232
	MsgTypeResetGame = 233

	// Server → client
	MsgTypeStateSync   = 301
	MsgTypeActionReply = 302
	MsgTypeUnlock      = 303
)
