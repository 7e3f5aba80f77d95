package model

import "hotelapp/internal/store"

// Room — тип номера из каталога: класс комнаты и пул физических номеров,
// которые его обслуживают. Каталог для ядра доступен только на чтение.
type Room struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Type            string   `json:"type"`
	Price           float64  `json:"price"`
	Size            string   `json:"size"`
	View            string   `json:"view"`
	ImageURL        string   `json:"image_url"`
	DetailImageURLs []string `json:"detail_image_urls"`
	Amenities       []string `json:"amenities"`
	RoomNumbers     []string `json:"room_numbers"`
	Capacity        int      `json:"capacity"`
	Availability    int      `json:"availability"`
	HasBalcony      bool     `json:"has_balcony"`
}

// RoomFromDocument разбирает документ каталога. Отсутствующие поля получают
// нулевые значения: каталог ведется вручную, и неполная карточка не должна
// ронять весь список.
func RoomFromDocument(doc store.Document) Room {
	r := Room{ID: doc.ID}
	r.Name, _ = stringField(doc.Data, "name")
	r.Description, _ = stringField(doc.Data, "description")
	r.Type, _ = stringField(doc.Data, "type")
	r.Price, _ = floatField(doc.Data, "price")
	r.Size, _ = stringField(doc.Data, "size")
	r.View, _ = stringField(doc.Data, "view")
	r.ImageURL, _ = stringField(doc.Data, "imageUrl")
	r.DetailImageURLs = stringSliceField(doc.Data, "detailImageUrls")
	r.Amenities = stringSliceField(doc.Data, "amenities")
	r.RoomNumbers = stringSliceField(doc.Data, "roomNumbers")
	r.Capacity, _ = intField(doc.Data, "capacity")
	r.Availability, _ = intField(doc.Data, "availability")
	r.HasBalcony, _ = boolField(doc.Data, "hasBalcony")
	return r
}

func boolField(data map[string]interface{}, key string) (bool, bool) {
	b, ok := data[key].(bool)
	return b, ok
}

func stringSliceField(data map[string]interface{}, key string) []string {
	switch v := data[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
