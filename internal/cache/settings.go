// Пакет cache кэширует настройки владельцев. Настройки читаются на каждом
// проходе синхронизации и при каждой отправке автосерии, меняются редко -
// короткий TTL снимает нагрузку с базы без риска работать с устаревшими
// фразами дольше нескольких минут.
package cache

import (
	"time"

	"sellerdesk/internal/model"
	"sellerdesk/internal/store"

	gocache "github.com/patrickmn/go-cache"
)

// SettingsCache TTL-кэш настроек владельцев поверх хранилища
type SettingsCache struct {
	store store.ChatStore
	cache *gocache.Cache
}

// NewSettingsCache создает кэш с заданным временем жизни записей
func NewSettingsCache(st store.ChatStore, liveTime time.Duration) *SettingsCache {
	return &SettingsCache{
		store: st,
		cache: gocache.New(liveTime, liveTime*2),
	}
}

// SettingsByOwner возвращает настройки владельца из кэша либо из хранилища.
// Отсутствие настроек тоже кэшируется, чтобы не дергать базу впустую.
func (c *SettingsCache) SettingsByOwner(ownerID string) (*model.UserSettings, error) {
	if cached, ok := c.cache.Get(ownerID); ok {
		if cached == nil {
			return nil, store.ErrNotFound
		}
		return cached.(*model.UserSettings), nil
	}

	settings, err := c.store.SettingsByOwner(ownerID)
	if err == store.ErrNotFound {
		c.cache.Set(ownerID, nil, gocache.DefaultExpiration)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	c.cache.Set(ownerID, settings, gocache.DefaultExpiration)
	return settings, nil
}

// Invalidate сбрасывает кэш владельца после изменения настроек
func (c *SettingsCache) Invalidate(ownerID string) {
	c.cache.Delete(ownerID)
}
