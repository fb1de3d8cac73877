package personoversikt

import (
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrDecodingRecordFailed wraps any failure to turn a raw record into a typed event.
	ErrDecodingRecordFailed = errors.New("decoding stream record failed")

	// ErrUnknownStreamTag is returned when a record carries a stream tag with no schema.
	ErrUnknownStreamTag = errors.New("unknown stream tag")
)

// StreamTag identifies which schema applies to a raw record.
type StreamTag string

const (
	// StreamOppfolgingstilfellePerson carries tilfelle snapshots.
	StreamOppfolgingstilfellePerson StreamTag = "oppfolgingstilfelle-person"

	// StreamOversikthendelse carries lifecycle hendelser.
	StreamOversikthendelse StreamTag = "oversikthendelse"

	// StreamDialogmotekandidat carries meeting-candidate events.
	StreamDialogmotekandidat StreamTag = "dialogmotekandidat"

	// StreamDialogmoteStatus carries meeting status-endring events.
	StreamDialogmoteStatus StreamTag = "dialogmote-status"
)

// StreamEvent is the closed set of typed events produced by the decoder.
type StreamEvent interface {
	// Person returns the identifier of the person the event concerns.
	Person() PersonIdent
}

// TilfelleEvent is a decoded tilfelle-snapshot record.
type TilfelleEvent struct {
	FNR      PersonIdent
	Tilfelle Oppfolgingstilfelle
}

// Person returns the person identifier.
func (e TilfelleEvent) Person() PersonIdent { return e.FNR }

// HendelseEvent is a decoded lifecycle hendelse record.
type HendelseEvent struct {
	FNR          PersonIdent
	HendelseType OversikthendelseType
}

// Person returns the person identifier.
func (e HendelseEvent) Person() PersonIdent { return e.FNR }

// KandidatEvent is a decoded meeting-candidate record.
type KandidatEvent struct {
	FNR      PersonIdent
	Kandidat bool
}

// Person returns the person identifier.
func (e KandidatEvent) Person() PersonIdent { return e.FNR }

// MoteStatusEvent is a decoded meeting status-endring record.
type MoteStatusEvent struct {
	FNR    PersonIdent
	Status string
}

// Person returns the person identifier.
func (e MoteStatusEvent) Person() PersonIdent { return e.FNR }

// Terminal meeting statuses clear the dialogmotekandidat flag.
const (
	MoteStatusFerdigstilt = "FERDIGSTILT"
	MoteStatusAvlyst      = "AVLYST"
)

// IsTerminal reports whether the meeting reached a state that ends candidacy.
func (e MoteStatusEvent) IsTerminal() bool {
	return e.Status == MoteStatusFerdigstilt || e.Status == MoteStatusAvlyst
}

type tilfellePayload struct {
	PersonIdent               string    `json:"personIdentNumber"`
	ReferanseTilfelleBitUUID  string    `json:"referanseTilfelleBitUuid"`
	ReferanseTilfelleBitInntruffet time.Time `json:"referanseTilfelleBitInntruffet"`
	CreatedAt                 time.Time `json:"createdAt"`
	ArbeidstakerAtTilfelleEnd bool      `json:"arbeidstakerAtTilfelleEnd"`
	Start                     time.Time `json:"oppfolgingstilfelleStart"`
	End                       time.Time `json:"oppfolgingstilfelleEnd"`
	AntallSykedager           *int      `json:"antallSykedager"`
	Virksomhetsnummer         []string  `json:"virksomhetsnummerList"`
}

type hendelsePayload struct {
	PersonIdent  string `json:"personident"`
	HendelseType string `json:"hendelseId"`
}

type kandidatPayload struct {
	PersonIdent string `json:"personident"`
	Kandidat    bool   `json:"kandidat"`
}

type moteStatusPayload struct {
	PersonIdent string `json:"personident"`
	Status      string `json:"statusEndringType"`
}

// DecodeRecord deserializes a raw record according to its stream tag.
//
// Unknown tags, malformed JSON, invalid person identifiers and hendelse types
// outside the closed enum all yield a typed decode error; nothing panics past
// this boundary. The caller decides skip versus halt.
func DecodeRecord(tag StreamTag, payload []byte) (StreamEvent, error) {
	switch tag {
	case StreamOppfolgingstilfellePerson:
		return decodeTilfelleRecord(payload)

	case StreamOversikthendelse:
		return decodeHendelseRecord(payload)

	case StreamDialogmotekandidat:
		return decodeKandidatRecord(payload)

	case StreamDialogmoteStatus:
		return decodeMoteStatusRecord(payload)

	default:
		return nil, errors.Join(ErrDecodingRecordFailed, ErrUnknownStreamTag)
	}
}

func decodeTilfelleRecord(payload []byte) (StreamEvent, error) {
	record := new(tilfellePayload)

	if err := jsoniter.ConfigFastest.Unmarshal(payload, record); err != nil {
		return nil, errors.Join(ErrDecodingRecordFailed, err)
	}

	fnr, err := BuildPersonIdent(record.PersonIdent)
	if err != nil {
		return nil, errors.Join(ErrDecodingRecordFailed, err)
	}

	return TilfelleEvent{
		FNR: fnr,
		Tilfelle: Oppfolgingstilfelle{
			ReferanseTidspunkt:        ToTidspunkt(record.ReferanseTilfelleBitInntruffet),
			OpprettetTidspunkt:        ToTidspunkt(record.CreatedAt),
			FragmentID:                record.ReferanseTilfelleBitUUID,
			ArbeidstakerAtTilfelleEnd: record.ArbeidstakerAtTilfelleEnd,
			Start:                     record.Start,
			End:                       record.End,
			AntallSykedager:           record.AntallSykedager,
			Virksomheter:              virksomheterFromNumbers(record.Virksomhetsnummer),
		},
	}, nil
}

// virksomheterFromNumbers carries the snapshot's employer numbers without
// assigning identity; stable IDs are decided by the set reconciliation
// against the persisted list.
func virksomheterFromNumbers(numbers []string) []Virksomhet {
	out := make([]Virksomhet, 0, len(numbers))
	for _, number := range numbers {
		out = append(out, Virksomhet{Virksomhetsnummer: number})
	}

	return out
}

func decodeHendelseRecord(payload []byte) (StreamEvent, error) {
	record := new(hendelsePayload)

	if err := jsoniter.ConfigFastest.Unmarshal(payload, record); err != nil {
		return nil, errors.Join(ErrDecodingRecordFailed, err)
	}

	fnr, err := BuildPersonIdent(record.PersonIdent)
	if err != nil {
		return nil, errors.Join(ErrDecodingRecordFailed, err)
	}

	hendelseType := OversikthendelseType(record.HendelseType)
	if !hendelseType.Known() {
		return nil, errors.Join(ErrDecodingRecordFailed, ErrUnknownHendelseType)
	}

	return HendelseEvent{FNR: fnr, HendelseType: hendelseType}, nil
}

func decodeKandidatRecord(payload []byte) (StreamEvent, error) {
	record := new(kandidatPayload)

	if err := jsoniter.ConfigFastest.Unmarshal(payload, record); err != nil {
		return nil, errors.Join(ErrDecodingRecordFailed, err)
	}

	fnr, err := BuildPersonIdent(record.PersonIdent)
	if err != nil {
		return nil, errors.Join(ErrDecodingRecordFailed, err)
	}

	return KandidatEvent{FNR: fnr, Kandidat: record.Kandidat}, nil
}

func decodeMoteStatusRecord(payload []byte) (StreamEvent, error) {
	record := new(moteStatusPayload)

	if err := jsoniter.ConfigFastest.Unmarshal(payload, record); err != nil {
		return nil, errors.Join(ErrDecodingRecordFailed, err)
	}

	fnr, err := BuildPersonIdent(record.PersonIdent)
	if err != nil {
		return nil, errors.Join(ErrDecodingRecordFailed, err)
	}

	return MoteStatusEvent{FNR: fnr, Status: record.Status}, nil
}
