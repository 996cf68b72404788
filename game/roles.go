package game

import (
	"math/rand"
	"time"

	"lkrserver/models"
)

// 役職名。平民系は "Civilian" を名前に含むことが最終技能の使用条件になる。
const (
	RoleCommander    = "Commander"
	RoleScout        = "Scout"
	RoleMedic        = "Medic"
	RoleCivilian     = "Civilian"
	RoleLurker       = "Lurker"
	RoleSaboteur     = "Saboteur"
	RoleShadow       = "Shadow"
	RoleEvilCivilian = "EvilCivilian"
)

// スキルを持つ役職の発動順（固定）。
var skillOrder = []string{RoleShadow, RoleCommander, RoleMedic, RoleLurker, RoleSaboteur, RoleScout}

// 勝敗判定に使う正義陣営の役職セット。
var goodRoles = map[string]bool{
	RoleCommander: true,
	RoleScout:     true,
	RoleMedic:     true,
	RoleCivilian:  true,
}

// 指揮官の調査で報告される陣営。影武者は正義側として偽装される点に注意
// （勝敗判定のgoodRolesとは意図的に一致しない）。
var commanderFactions = map[string]string{
	RoleScout:        "good",
	RoleMedic:        "good",
	RoleCommander:    "good",
	RoleCivilian:     "good",
	RoleShadow:       "good",
	RoleLurker:       "evil",
	RoleSaboteur:     "evil",
	RoleEvilCivilian: "evil",
}

// roleCatalog は人数（5〜10）ごとの配役表です。
// 以前は2箇所にswitch文で重複していたものをデータ駆動の1表に統合。
var roleCatalog = map[int][]models.RoleInfo{
	5: {
		{Name: RoleScout, Image: "goodpeople1.png"},
		{Name: RoleCivilian, Image: "goodpeople4.png"},
		{Name: RoleCivilian, Image: "goodpeople4.png"},
		{Name: RoleLurker, Image: "badpeople1.png"},
		{Name: RoleEvilCivilian, Image: "badpeople4.png"},
	},
	6: {
		{Name: RoleCommander, Image: "goodpeople3.png"},
		{Name: RoleScout, Image: "goodpeople1.png"},
		{Name: RoleCivilian, Image: "goodpeople4.png"},
		{Name: RoleSaboteur, Image: "badpeople2.png"},
		{Name: RoleLurker, Image: "badpeople1.png"},
		{Name: RoleEvilCivilian, Image: "badpeople4.png"},
	},
	7: {
		{Name: RoleCommander, Image: "goodpeople3.png"},
		{Name: RoleScout, Image: "goodpeople1.png"},
		{Name: RoleMedic, Image: "goodpeople2.png"},
		{Name: RoleCivilian, Image: "goodpeople4.png"},
		{Name: RoleLurker, Image: "badpeople1.png"},
		{Name: RoleSaboteur, Image: "badpeople2.png"},
		{Name: RoleEvilCivilian, Image: "badpeople4.png"},
	},
	8: {
		{Name: RoleCommander, Image: "goodpeople3.png"},
		{Name: RoleScout, Image: "goodpeople1.png"},
		{Name: RoleMedic, Image: "goodpeople2.png"},
		{Name: RoleCivilian, Image: "goodpeople4.png"},
		{Name: RoleCivilian, Image: "goodpeople4.png"},
		{Name: RoleLurker, Image: "badpeople1.png"},
		{Name: RoleSaboteur, Image: "badpeople2.png"},
		{Name: RoleEvilCivilian, Image: "badpeople4.png"},
	},
	9: {
		{Name: RoleCommander, Image: "goodpeople3.png"},
		{Name: RoleScout, Image: "goodpeople1.png"},
		{Name: RoleMedic, Image: "goodpeople2.png"},
		{Name: RoleCivilian, Image: "goodpeople4.png"},
		{Name: RoleCivilian, Image: "goodpeople4.png"},
		{Name: RoleEvilCivilian, Image: "badpeople4.png"},
		{Name: RoleLurker, Image: "badpeople1.png"},
		{Name: RoleSaboteur, Image: "badpeople2.png"},
		{Name: RoleShadow, Image: "badpeople3.png"},
	},
	10: {
		{Name: RoleCommander, Image: "goodpeople3.png"},
		{Name: RoleScout, Image: "goodpeople1.png"},
		{Name: RoleMedic, Image: "goodpeople2.png"},
		{Name: RoleCivilian, Image: "goodpeople4.png"},
		{Name: RoleCivilian, Image: "goodpeople4.png"},
		{Name: RoleCivilian, Image: "goodpeople4.png"},
		{Name: RoleLurker, Image: "badpeople1.png"},
		{Name: RoleSaboteur, Image: "badpeople2.png"},
		{Name: RoleShadow, Image: "badpeople3.png"},
		{Name: RoleEvilCivilian, Image: "badpeople4.png"},
	},
}

// RolesFor は人数分の配役表のコピーを返します。5〜10人のみ対応。
func RolesFor(count int) ([]models.RoleInfo, error) {
	roles, ok := roleCatalog[count]
	if !ok {
		return nil, errInvalidArgument("unsupported player count")
	}
	out := make([]models.RoleInfo, len(roles))
	copy(out, roles)
	return out, nil
}

// IsGoodRole は勝敗判定上その役職が正義陣営かを返します。
func IsGoodRole(name string) bool {
	return goodRoles[name]
}

// 乱数は配役のシャッフルに使用
func createLocalRandGenerator() *rand.Rand {
	source := rand.NewSource(time.Now().UnixNano())
	return rand.New(source)
}

func shuffleRoles(randGen *rand.Rand, roles []models.RoleInfo) {
	randGen.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})
}
