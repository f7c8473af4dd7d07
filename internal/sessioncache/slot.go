package sessioncache

import (
	"github.com/gin-contrib/sessions"
	"github.com/google/uuid"
)

const (
	sessionKeySlot  = "curriculum_slot"
	sessionKeyOwner = "slot_owner"
)

// CurrentSlot は user が所有するスロットIDを返します。未作成または他ユーザーのスロットなら空文字です。
func CurrentSlot(s sessions.Session, user string) string {
	slot, _ := s.Get(sessionKeySlot).(string)
	owner, _ := s.Get(sessionKeyOwner).(string)
	if slot == "" || owner != user {
		return ""
	}
	return slot
}

// EnsureSlot は user のスロットIDを返し、無ければ新しく割り当てます。
// created が true の場合、呼び出し側でセッションを保存する必要があります。
func EnsureSlot(s sessions.Session, user string) (slot string, created bool) {
	if slot := CurrentSlot(s, user); slot != "" {
		return slot, false
	}
	slot = uuid.NewString()
	s.Set(sessionKeySlot, slot)
	s.Set(sessionKeyOwner, user)
	return slot, true
}

// ClaimSlot はログイン時に呼び出します。スロットが別ユーザーのものであれば破棄し、同じユーザーなら引き継ぎます。
func ClaimSlot(s sessions.Session, user string) {
	owner, _ := s.Get(sessionKeyOwner).(string)
	if owner == user {
		return
	}
	s.Delete(sessionKeySlot)
	s.Set(sessionKeyOwner, user)
}
