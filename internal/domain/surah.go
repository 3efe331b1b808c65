package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SurahCount is the number of surahs in the mushaf.
const SurahCount = 114

// surahNames is indexed by surah number; index 0 is unused.
var surahNames = [SurahCount + 1]string{
	"",
	"الفاتحة", "البقرة", "آل عمران", "النساء", "المائدة", "الأنعام",
	"الأعراف", "الأنفال", "التوبة", "يونس", "هود", "يوسف",
	"الرعد", "إبراهيم", "الحجر", "النحل", "الإسراء", "الكهف",
	"مريم", "طه", "الأنبياء", "الحج", "المؤمنون", "النور",
	"الفرقان", "الشعراء", "النمل", "القصص", "العنكبوت", "الروم",
	"لقمان", "السجدة", "الأحزاب", "سبأ", "فاطر", "يس",
	"الصافات", "ص", "الزمر", "غافر", "فصلت", "الشورى",
	"الزخرف", "الدخان", "الجاثية", "الأحقاف", "محمد", "الفتح",
	"الحجرات", "ق", "الذاريات", "الطور", "النجم", "القمر",
	"الرحمن", "الواقعة", "الحديد", "المجادلة", "الحشر", "الممتحنة",
	"الصف", "الجمعة", "المنافقون", "التغابن", "الطلاق", "التحريم",
	"الملك", "القلم", "الحاقة", "المعارج", "نوح", "الجن",
	"المزمل", "المدثر", "القيامة", "الإنسان", "المرسلات", "النبأ",
	"النازعات", "عبس", "التكوير", "الانفطار", "المطففين", "الانشقاق",
	"البروج", "الطارق", "الأعلى", "الغاشية", "الفجر", "البلد",
	"الشمس", "الليل", "الضحى", "الشرح", "التين", "العلق",
	"القدر", "البينة", "الزلزلة", "العاديات", "القارعة", "التكاثر",
	"العصر", "الهمزة", "الفيل", "قريش", "الماعون", "الكوثر",
	"الكافرون", "النصر", "المسد", "الإخلاص", "الفلق", "الناس",
}

// SurahName returns the Arabic name of surah n, or a numbered placeholder
// ("سورة رقم n") for anything outside 1..114.
func SurahName(n int) string {
	if n < 1 || n > SurahCount {
		return fmt.Sprintf("سورة رقم %d", n)
	}
	return surahNames[n]
}

// SurahDisplayName resolves a stored surah reference. Progress records keep the
// surah as free text, so a numeric string maps through the table and anything
// else is returned as is.
func SurahDisplayName(ref string) string {
	if n, err := strconv.Atoi(strings.TrimSpace(ref)); err == nil {
		return SurahName(n)
	}
	return ref
}
