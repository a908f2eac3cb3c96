package database

import (
	"tvfleet/pkg/models"

	"github.com/firdasafridi/gocrypt"
)

// EncryptStruct encrypts the fields tagged with gocrypt using the provided secret key.
func EncryptStruct[T any](entity T, secretKey string) (T, error) {
	aesOpt, err := gocrypt.NewAESOpt(secretKey)
	if err != nil {
		return entity, err
	}

	opt := &gocrypt.Option{
		AESOpt: aesOpt,
	}

	gc := gocrypt.New(opt)
	err = gc.Encrypt(&entity)
	if err != nil {
		return entity, err
	}
	return entity, nil
}

// DecryptStruct decrypts the fields tagged with gocrypt using the provided secret key.
func DecryptStruct[T any](entity T, secretKey string) (T, error) {
	aesOpt, err := gocrypt.NewAESOpt(secretKey)
	if err != nil {
		return entity, err
	}

	opt := &gocrypt.Option{
		AESOpt: aesOpt,
	}

	gc := gocrypt.New(opt)
	err = gc.Decrypt(&entity)
	if err != nil {
		return entity, err
	}
	return entity, nil
}

// DecryptToken decrypts a TV record's pairing token.
// Falls back to the stored value if decryption fails, which handles
// records written before encryption was enabled.
func DecryptToken(tv *models.TV, secretKey string) (string, error) {
	if tv == nil || tv.Token == "" {
		return "", nil
	}

	decrypted, err := DecryptStruct(*tv, secretKey)
	if err != nil {
		return tv.Token, nil
	}

	return decrypted.Token, nil
}
