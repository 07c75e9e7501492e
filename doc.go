// Project Structure Overview
/*
beatmarket/
├── cmd/
│   └── server/
│       └── main.go
├── internal/
│   ├── config/
│   │   ├── config.go
│   │   └── database.go
│   ├── models/
│   │   ├── common.go
│   │   ├── user.go
│   │   ├── beat.go
│   │   ├── contract.go
│   │   ├── rating.go
│   │   ├── withdrawal.go
│   │   └── audit.go
│   ├── handlers/
│   │   ├── beat.go
│   │   ├── purchase.go
│   │   ├── earnings.go
│   │   ├── currency.go
│   │   └── errors.go
│   ├── services/
│   │   ├── beat_service.go
│   │   ├── currency_service.go
│   │   ├── rating_service.go
│   │   ├── split_service.go
│   │   ├── contract_service.go
│   │   ├── purchase_service.go
│   │   ├── payment_gateway.go
│   │   ├── earnings_service.go
│   │   ├── storage_service.go
│   │   ├── events.go
│   │   └── errors.go
│   ├── repository/
│   │   ├── store.go
│   │   ├── gorm_store.go
│   │   └── locks.go
│   ├── middleware/
│   │   ├── auth.go
│   │   ├── cors.go
│   │   ├── rate_limit.go
│   │   ├── i18n.go
│   │   └── logging.go
│   ├── database/
│   │   ├── connection.go
│   │   └── seed.go
│   ├── i18n/
│   │   ├── i18n.go
│   │   ├── locales/
│   │   │   ├── en.json
│   │   │   └── zh_TW.json
│   │   └── keys.go
│   ├── logger/
│   ├── metrics/
│   ├── utils/
│   │   ├── jwt.go
│   │   ├── validator.go
│   │   ├── crypto.go
│   │   ├── pagination.go
│   │   └── response.go
│   └── router/
│       └── router.go
├── go.mod
└── go.sum
*/

// Package beatmarket is the commerce and rights core of a beat licensing marketplace.
package beatmarket
