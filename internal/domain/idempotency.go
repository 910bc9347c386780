package domain

// IdempotencyRecord связывает клиентский ключ с результатом первого запроса.
// Запись эфемерна: после истечения TTL ключ можно переиспользовать
// для нового, логически не связанного заказа.
type IdempotencyRecord struct {
	// ResultID — идентификатор заказа, созданного исходным запросом.
	ResultID string
	// BodyDigest — sha256 нормализованного тела запроса.
	BodyDigest string
}
