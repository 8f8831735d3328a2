package db

func NewStorageForTest(closers ...Closer) *Storage {
	return &Storage{closers: closers}
}
